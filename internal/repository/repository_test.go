package repository_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/model"
	"github.com/dverbeek/portfolio-tracker/internal/repository"
	"github.com/dverbeek/portfolio-tracker/internal/testutil"
)

// TestPriceRepository tests the historical price cache.
//
// WHY: Cached prices feed historical reconstruction directly. Recent
// dates must never be persisted because the provider still revises
// them, and re-saving a date must overwrite rather than duplicate.
func TestPriceRepository(t *testing.T) {
	now := testutil.Date(t, "2024-06-15")

	t.Run("round trip for old dates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		err := repo.SavePrices("VOO", map[string]decimal.Decimal{
			"2024-01-02": testutil.Dec(t, "440.10"),
			"2024-01-03": testutil.Dec(t, "442.55"),
		}, now)
		if err != nil {
			t.Fatalf("SavePrices() returned unexpected error: %v", err)
		}

		got, err := repo.GetPrices("VOO", testutil.Date(t, "2024-01-01"), testutil.Date(t, "2024-01-31"))
		if err != nil {
			t.Fatalf("GetPrices() returned unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 prices, got %d", len(got))
		}
		if !got["2024-01-02"].Equal(testutil.Dec(t, "440.10")) {
			t.Errorf("price for 2024-01-02 = %s, want 440.10", got["2024-01-02"])
		}
	})

	t.Run("recent dates are not persisted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		err := repo.SavePrices("VOO", map[string]decimal.Decimal{
			"2024-06-14": testutil.Dec(t, "450"), // within the threshold
			"2024-06-01": testutil.Dec(t, "445"),
		}, now)
		if err != nil {
			t.Fatalf("SavePrices() returned unexpected error: %v", err)
		}

		got, err := repo.GetPrices("VOO", testutil.Date(t, "2024-06-01"), testutil.Date(t, "2024-06-30"))
		if err != nil {
			t.Fatalf("GetPrices() returned unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected only the old date to persist, got %d rows", len(got))
		}
		if _, ok := got["2024-06-14"]; ok {
			t.Error("recent date was cached")
		}
	})

	t.Run("re-saving a date overwrites", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		for _, price := range []string{"440.10", "441.00"} {
			err := repo.SavePrices("VOO", map[string]decimal.Decimal{
				"2024-01-02": testutil.Dec(t, price),
			}, now)
			if err != nil {
				t.Fatalf("SavePrices() returned unexpected error: %v", err)
			}
		}

		got, err := repo.GetPrices("VOO", testutil.Date(t, "2024-01-01"), testutil.Date(t, "2024-01-31"))
		if err != nil {
			t.Fatalf("GetPrices() returned unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 row after upsert, got %d", len(got))
		}
		if !got["2024-01-02"].Equal(testutil.Dec(t, "441.00")) {
			t.Errorf("price after upsert = %s, want 441.00", got["2024-01-02"])
		}
	})

	t.Run("stats and clear", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		err := repo.SavePrices("VOO", map[string]decimal.Decimal{
			"2024-01-02": testutil.Dec(t, "440"),
			"2024-01-03": testutil.Dec(t, "441"),
		}, now)
		if err != nil {
			t.Fatalf("SavePrices() returned unexpected error: %v", err)
		}

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("Stats() returned unexpected error: %v", err)
		}
		if stats.Rows != 2 || stats.Symbols != 1 {
			t.Errorf("Stats() = %+v, want 2 rows for 1 symbol", stats)
		}
		if stats.MinDate != "2024-01-02" || stats.MaxDate != "2024-01-03" {
			t.Errorf("Stats() range = %s..%s, want 2024-01-02..2024-01-03", stats.MinDate, stats.MaxDate)
		}

		if err := repo.Clear(); err != nil {
			t.Fatalf("Clear() returned unexpected error: %v", err)
		}
		stats, err = repo.Stats()
		if err != nil {
			t.Fatalf("Stats() returned unexpected error: %v", err)
		}
		if stats.Rows != 0 {
			t.Errorf("expected empty table after Clear(), got %d rows", stats.Rows)
		}
	})
}

// TestValueRepository tests the reconstructed portfolio value cache.
//
// WHY: The historical endpoint merges cached and recomputed values;
// corrupt or duplicated rows would silently distort the chart.
func TestValueRepository(t *testing.T) {
	now := testutil.Date(t, "2024-06-15")

	point := func(date, total, invest, cost, cash string) model.ValuePoint {
		return model.ValuePoint{
			Date:            testutil.Date(t, date),
			TotalValue:      testutil.Dec(t, total),
			InvestmentValue: testutil.Dec(t, invest),
			CostBasis:       testutil.Dec(t, cost),
			CashValue:       testutil.Dec(t, cash),
		}
	}

	t.Run("round trip preserves every field exactly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewValueRepository(db)

		in := []model.ValuePoint{
			point("2024-01-02", "1500.25", "1000.25", "900", "500"),
			point("2024-01-03", "1510.00", "1010.00", "900", "500"),
		}
		if err := repo.SaveValues(in, now); err != nil {
			t.Fatalf("SaveValues() returned unexpected error: %v", err)
		}

		got, err := repo.GetValues(testutil.Date(t, "2024-01-01"), testutil.Date(t, "2024-01-31"))
		if err != nil {
			t.Fatalf("GetValues() returned unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 values, got %d", len(got))
		}

		v := got["2024-01-02"]
		if !v.TotalValue.Equal(testutil.Dec(t, "1500.25")) {
			t.Errorf("total = %s, want 1500.25", v.TotalValue)
		}
		if !v.InvestmentValue.Equal(testutil.Dec(t, "1000.25")) {
			t.Errorf("investment = %s, want 1000.25", v.InvestmentValue)
		}
		if !v.CostBasis.Equal(testutil.Dec(t, "900")) {
			t.Errorf("cost basis = %s, want 900", v.CostBasis)
		}
		if !v.CashValue.Equal(testutil.Dec(t, "500")) {
			t.Errorf("cash = %s, want 500", v.CashValue)
		}
	})

	t.Run("recent dates are not persisted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewValueRepository(db)

		in := []model.ValuePoint{
			point("2024-06-01", "100", "100", "90", "0"),
			point("2024-06-14", "105", "105", "90", "0"),
		}
		if err := repo.SaveValues(in, now); err != nil {
			t.Fatalf("SaveValues() returned unexpected error: %v", err)
		}

		got, err := repo.GetValues(testutil.Date(t, "2024-06-01"), testutil.Date(t, "2024-06-30"))
		if err != nil {
			t.Fatalf("GetValues() returned unexpected error: %v", err)
		}
		if _, ok := got["2024-06-14"]; ok {
			t.Error("recent date was cached")
		}
		if len(got) != 1 {
			t.Errorf("expected 1 persisted value, got %d", len(got))
		}
	})
}
