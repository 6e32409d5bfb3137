package handlers

import (
	"io"
	"net/http"

	"github.com/dverbeek/portfolio-tracker/internal/repository"
	"github.com/dverbeek/portfolio-tracker/internal/service"
)

// maxUploadBytes caps transaction file uploads.
const maxUploadBytes = 10 << 20 // 10 MB

// FilesHandler handles transaction file listing, upload and reload
type FilesHandler struct {
	loaderService *service.LoaderService
	valueRepo     *repository.ValueRepository
	cache         *ResponseCache
}

// NewFilesHandler creates a new FilesHandler
func NewFilesHandler(loaderService *service.LoaderService, valueRepo *repository.ValueRepository, cache *ResponseCache) *FilesHandler {
	return &FilesHandler{
		loaderService: loaderService,
		valueRepo:     valueRepo,
		cache:         cache,
	}
}

// Files lists the transaction files in the data directory
func (h *FilesHandler) Files(w http.ResponseWriter, r *http.Request) {
	files, err := h.loaderService.Files()
	if err != nil {
		respondServerError(w, "Failed to list transaction files", err)
		return
	}
	if files == nil {
		files = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

// Upload accepts a multipart transaction file, stores it in the data
// directory and reloads the ledger
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondBadRequest(w, "Invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondBadRequest(w, "Missing file field", err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondServerError(w, "Failed to read upload", err)
		return
	}

	count, err := h.loaderService.SaveUpload(header.Filename, content)
	if err != nil {
		respondBadRequest(w, "Failed to import file", err)
		return
	}

	h.cache.invalidate()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "File imported successfully",
		"filename":     header.Filename,
		"transactions": count,
	})
}

// Reload re-reads every transaction file and rebuilds the ledger. With
// clear_history_cache=true the cached daily value series is dropped
// first so history is recomputed from the new transactions.
func (h *FilesHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("clear_history_cache") == "true" {
		if err := h.valueRepo.Clear(); err != nil {
			respondServerError(w, "Failed to clear history cache", err)
			return
		}
	}

	count, err := h.loaderService.Reload()
	if err != nil {
		respondServerError(w, "Failed to reload transactions", err)
		return
	}

	h.cache.invalidate()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Transactions reloaded",
		"transactions": count,
	})
}
