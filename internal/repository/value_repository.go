package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// ValueRepository provides data access methods for the portfolio_values
// cache table, which memoizes reconstructed daily portfolio values.
type ValueRepository struct {
	db *sql.DB
}

// NewValueRepository creates a new ValueRepository with the provided
// database connection.
func NewValueRepository(db *sql.DB) *ValueRepository {
	return &ValueRepository{db: db}
}

// GetValues retrieves cached daily values within the date range
// (inclusive), keyed by ISO date string.
func (r *ValueRepository) GetValues(start, end time.Time) (map[string]model.ValuePoint, error) {
	rows, err := r.db.Query(`
		SELECT date, total_value, investment_value, cost_basis, cash_value
		FROM portfolio_values
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]model.ValuePoint)
	for rows.Next() {
		var day, totalStr, investStr, costStr, cashStr string
		if err := rows.Scan(&day, &totalStr, &investStr, &costStr, &cashStr); err != nil {
			return nil, fmt.Errorf("failed to scan value row: %w", err)
		}

		point, err := parseValuePoint(day, totalStr, investStr, costStr, cashStr)
		if err != nil {
			return nil, err
		}
		values[day] = point
	}
	return values, rows.Err()
}

// SaveValues upserts daily value points. Dates within the cache recency
// threshold are skipped on write so revisable values never stick.
func (r *ValueRepository) SaveValues(points []model.ValuePoint, now time.Time) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO portfolio_values (id, date, total_value, investment_value, cost_basis, cash_value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			total_value = excluded.total_value,
			investment_value = excluded.investment_value,
			cost_basis = excluded.cost_basis,
			cash_value = excluded.cash_value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if !IsCacheable(p.Date, now) {
			continue
		}
		_, err := stmt.Exec(
			uuid.New().String(),
			p.Date.Format("2006-01-02"),
			p.TotalValue.String(),
			p.InvestmentValue.String(),
			p.CostBasis.String(),
			p.CashValue.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert value for %s: %w", p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit values: %w", err)
	}
	return nil
}

// ValueStats summarizes the portfolio_values table for the cache stats
// endpoint.
type ValueStats struct {
	Rows    int
	MinDate string
	MaxDate string
}

// Stats returns the row count and covered date range.
func (r *ValueRepository) Stats() (ValueStats, error) {
	var stats ValueStats
	var minDate, maxDate sql.NullString
	err := r.db.QueryRow(`
		SELECT COUNT(*), MIN(date), MAX(date) FROM portfolio_values
	`).Scan(&stats.Rows, &minDate, &maxDate)
	if err != nil {
		return ValueStats{}, fmt.Errorf("failed to query value stats: %w", err)
	}
	stats.MinDate = minDate.String
	stats.MaxDate = maxDate.String
	return stats, nil
}

// Clear removes every cached value row.
func (r *ValueRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM portfolio_values`); err != nil {
		return fmt.Errorf("failed to clear portfolio_values: %w", err)
	}
	return nil
}

func parseValuePoint(day, totalStr, investStr, costStr, cashStr string) (model.ValuePoint, error) {
	date, err := ParseTime(day)
	if err != nil {
		return model.ValuePoint{}, err
	}

	point := model.ValuePoint{Date: date}
	if point.TotalValue, err = decimal.NewFromString(totalStr); err != nil {
		return model.ValuePoint{}, fmt.Errorf("corrupt total_value for %s: %w", day, err)
	}
	if point.InvestmentValue, err = decimal.NewFromString(investStr); err != nil {
		return model.ValuePoint{}, fmt.Errorf("corrupt investment_value for %s: %w", day, err)
	}
	if point.CostBasis, err = decimal.NewFromString(costStr); err != nil {
		return model.ValuePoint{}, fmt.Errorf("corrupt cost_basis for %s: %w", day, err)
	}
	if point.CashValue, err = decimal.NewFromString(cashStr); err != nil {
		return model.ValuePoint{}, fmt.Errorf("corrupt cash_value for %s: %w", day, err)
	}
	return point, nil
}
