package handlers

import (
	"net/http"

	"github.com/dverbeek/portfolio-tracker/internal/repository"
)

// CacheHandler handles market data cache inspection and clearing
type CacheHandler struct {
	priceRepo *repository.PriceRepository
	valueRepo *repository.ValueRepository
	cache     *ResponseCache
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(priceRepo *repository.PriceRepository, valueRepo *repository.ValueRepository, cache *ResponseCache) *CacheHandler {
	return &CacheHandler{
		priceRepo: priceRepo,
		valueRepo: valueRepo,
		cache:     cache,
	}
}

// CacheStatsResponse summarizes both persistent caches
type CacheStatsResponse struct {
	Prices PriceStatsResponse `json:"prices"`
	Values ValueStatsResponse `json:"values"`
}

// PriceStatsResponse summarizes the historical price cache
type PriceStatsResponse struct {
	Rows    int    `json:"rows"`
	Symbols int    `json:"symbols"`
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

// ValueStatsResponse summarizes the daily value cache
type ValueStatsResponse struct {
	Rows    int    `json:"rows"`
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

// Stats returns row counts and date coverage of the persistent caches
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	priceStats, err := h.priceRepo.Stats()
	if err != nil {
		respondServerError(w, "Failed to get price cache stats", err)
		return
	}

	valueStats, err := h.valueRepo.Stats()
	if err != nil {
		respondServerError(w, "Failed to get value cache stats", err)
		return
	}

	respondJSON(w, http.StatusOK, CacheStatsResponse{
		Prices: PriceStatsResponse{
			Rows:    priceStats.Rows,
			Symbols: priceStats.Symbols,
			MinDate: priceStats.MinDate,
			MaxDate: priceStats.MaxDate,
		},
		Values: ValueStatsResponse{
			Rows:    valueStats.Rows,
			MinDate: valueStats.MinDate,
			MaxDate: valueStats.MaxDate,
		},
	})
}

// Clear drops both persistent caches and the in-memory response cache
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.priceRepo.Clear(); err != nil {
		respondServerError(w, "Failed to clear price cache", err)
		return
	}
	if err := h.valueRepo.Clear(); err != nil {
		respondServerError(w, "Failed to clear value cache", err)
		return
	}

	h.cache.invalidate()
	respondJSON(w, http.StatusOK, map[string]string{"message": "Caches cleared"})
}
