package service

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dverbeek/portfolio-tracker/internal/importer"
	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// LoaderService loads transaction files from the data directory into
// the live ledger and accepts uploads of new files.
type LoaderService struct {
	dataDir   string
	portfolio *PortfolioService
}

// NewLoaderService creates a LoaderService.
func NewLoaderService(dataDir string, portfolio *PortfolioService) *LoaderService {
	return &LoaderService{dataDir: dataDir, portfolio: portfolio}
}

// Files lists the transaction files below the data directory, relative
// to it, sorted.
func (s *LoaderService) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list transaction files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Reload parses every transaction file and swaps the rebuilt ledger
// into the portfolio service. Returns the number of transactions
// loaded. A single unparseable file fails the whole reload; a partial
// ledger would silently misreport every number downstream.
func (s *LoaderService) Reload() (int, error) {
	files, err := s.Files()
	if err != nil {
		return 0, err
	}

	var txns []model.Transaction
	for _, file := range files {
		fileTxns, err := importer.ParseFile(filepath.Join(s.dataDir, file))
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		txns = append(txns, fileTxns...)
	}

	s.portfolio.Reload(txns)
	return len(txns), nil
}

// SaveUpload validates and stores an uploaded transaction file in the
// data directory, then reloads the ledger. The content is parsed
// before anything touches disk so a bad file never lands there.
func (s *LoaderService) SaveUpload(filename string, content []byte) (int, error) {
	base := filepath.Base(filename)
	if base == "" || base == "." || !strings.EqualFold(filepath.Ext(base), ".csv") {
		return 0, fmt.Errorf("invalid file name %q, expected a .csv file", filename)
	}

	parsed, err := importer.Parse(strings.NewReader(string(content)))
	if err != nil {
		return 0, err
	}
	if len(parsed) == 0 {
		return 0, fmt.Errorf("file contains no transactions")
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, base), content, 0o644); err != nil {
		return 0, fmt.Errorf("failed to save upload: %w", err)
	}

	return s.Reload()
}
