// Package repository provides SQLite-backed cache storage for
// historical close prices and reconstructed daily portfolio values.
// Monetary values are stored as decimal strings, never as floats.
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRepository provides data access methods for the historical_prices
// cache table.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided
// database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetPrices retrieves cached close prices for a symbol within the date
// range (inclusive), keyed by ISO date string.
func (r *PriceRepository) GetPrices(symbol string, start, end time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(`
		SELECT date, close_price
		FROM historical_prices
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query historical_prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal)
	for rows.Next() {
		var day, priceStr string
		if err := rows.Scan(&day, &priceStr); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt price for %s on %s: %w", symbol, day, err)
		}
		prices[day] = price
	}
	return prices, rows.Err()
}

// SavePrices upserts close prices for a symbol. Dates within the cache
// recency threshold are skipped; prices for those dates are not final.
func (r *PriceRepository) SavePrices(symbol string, prices map[string]decimal.Decimal, now time.Time) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO historical_prices (id, symbol, date, close_price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET close_price = excluded.close_price
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for day, price := range prices {
		date, err := ParseTime(day)
		if err != nil {
			return err
		}
		if !IsCacheable(date, now) {
			continue
		}
		if _, err := stmt.Exec(uuid.New().String(), symbol, day, price.String()); err != nil {
			return fmt.Errorf("failed to upsert price for %s on %s: %w", symbol, day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices: %w", err)
	}
	return nil
}

// PriceStats summarizes the historical_prices table for the cache stats
// endpoint.
type PriceStats struct {
	Rows    int
	Symbols int
	MinDate string
	MaxDate string
}

// Stats returns row and symbol counts plus the covered date range.
func (r *PriceRepository) Stats() (PriceStats, error) {
	var stats PriceStats
	var minDate, maxDate sql.NullString
	err := r.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT symbol), MIN(date), MAX(date)
		FROM historical_prices
	`).Scan(&stats.Rows, &stats.Symbols, &minDate, &maxDate)
	if err != nil {
		return PriceStats{}, fmt.Errorf("failed to query price stats: %w", err)
	}
	stats.MinDate = minDate.String
	stats.MaxDate = maxDate.String
	return stats, nil
}

// Clear removes every cached price row.
func (r *PriceRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM historical_prices`); err != nil {
		return fmt.Errorf("failed to clear historical_prices: %w", err)
	}
	return nil
}
