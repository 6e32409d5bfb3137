package service_test

import (
	"testing"
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/model"
	"github.com/dverbeek/portfolio-tracker/internal/repository"
	"github.com/dverbeek/portfolio-tracker/internal/service"
	"github.com/dverbeek/portfolio-tracker/internal/testutil"
)

func newHistoryFixture(t *testing.T, prices *testutil.FakePriceSource, valueRepo *repository.ValueRepository, txns []model.Transaction) *service.HistoryService {
	t.Helper()
	portfolio := service.NewPortfolioService(prices, testutil.NewFakeSplitSource())
	portfolio.Reload(txns)
	return service.NewHistoryService(portfolio, prices, testutil.NewFakeSplitSource(), valueRepo)
}

// TestHistoryService_HistoricalValues tests day-by-day reconstruction.
//
// WHY: The performance chart is rebuilt by replaying the transaction
// history against point-in-time closes. Prices must carry forward over
// weekends, transactions must take effect on their date, and the series
// must not start before the portfolio existed.
func TestHistoryService_HistoricalValues(t *testing.T) {
	t.Run("replays values day by day", func(t *testing.T) {
		// Setup: 10 shares bought on Jan 2, price moves 100 -> 110 on Jan 4
		prices := testutil.NewFakePriceSource().
			WithHistorical("VOO", "2024-01-02", testutil.Dec(t, "100")).
			WithHistorical("VOO", "2024-01-04", testutil.Dec(t, "110"))
		svc := newHistoryFixture(t, prices, nil, []model.Transaction{
			testutil.Buy(t, "2024-01-02", "VOO", "10", "100"),
			testutil.Cash(t, "2024-01-03", "500"),
		})

		// Execute
		points, err := svc.HistoricalValues(testutil.Date(t, "2024-01-02"), testutil.Date(t, "2024-01-05"))

		// Assert
		if err != nil {
			t.Fatalf("HistoricalValues() returned unexpected error: %v", err)
		}
		if len(points) != 4 {
			t.Fatalf("Expected 4 points, got %d", len(points))
		}

		// Jan 2: position valued at 100, no cash yet
		assertDec(t, points[0].InvestmentValue, "1000", "Jan 2 InvestmentValue")
		assertDec(t, points[0].CashValue, "0", "Jan 2 CashValue")
		assertDec(t, points[0].TotalValue, "1000", "Jan 2 TotalValue")
		assertDec(t, points[0].CostBasis, "1000", "Jan 2 CostBasis")

		// Jan 3: price carries forward, cash snapshot takes effect
		assertDec(t, points[1].InvestmentValue, "1000", "Jan 3 InvestmentValue")
		assertDec(t, points[1].CashValue, "500", "Jan 3 CashValue")
		assertDec(t, points[1].TotalValue, "1500", "Jan 3 TotalValue")

		// Jan 4 and 5: new close applies and then carries forward
		assertDec(t, points[2].InvestmentValue, "1100", "Jan 4 InvestmentValue")
		assertDec(t, points[3].InvestmentValue, "1100", "Jan 5 InvestmentValue")
	})

	t.Run("values symbols without price data at zero", func(t *testing.T) {
		// Setup: no prices configured at all
		prices := testutil.NewFakePriceSource()
		svc := newHistoryFixture(t, prices, nil, []model.Transaction{
			testutil.Buy(t, "2024-01-02", "VOO", "10", "100"),
		})

		// Execute
		points, err := svc.HistoricalValues(testutil.Date(t, "2024-01-02"), testutil.Date(t, "2024-01-03"))

		// Assert
		if err != nil {
			t.Fatalf("HistoricalValues() returned unexpected error: %v", err)
		}
		if len(points) != 2 {
			t.Fatalf("Expected 2 points, got %d", len(points))
		}
		assertDec(t, points[0].InvestmentValue, "0", "InvestmentValue")
		assertDec(t, points[0].CostBasis, "1000", "CostBasis")
	})

	t.Run("returns nothing for an empty ledger", func(t *testing.T) {
		// Setup
		svc := newHistoryFixture(t, testutil.NewFakePriceSource(), nil, nil)

		// Execute
		points, err := svc.HistoricalValues(time.Time{}, time.Time{})

		// Assert
		if err != nil {
			t.Fatalf("HistoricalValues() returned unexpected error: %v", err)
		}
		if len(points) != 0 {
			t.Errorf("Expected no points, got %d", len(points))
		}
	})

	t.Run("persists computed values to the cache", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		valueRepo := repository.NewValueRepository(db)
		prices := testutil.NewFakePriceSource().
			WithHistorical("VOO", "2024-01-02", testutil.Dec(t, "100"))
		svc := newHistoryFixture(t, prices, valueRepo, []model.Transaction{
			testutil.Buy(t, "2024-01-02", "VOO", "10", "100"),
		})

		// Execute
		_, err := svc.HistoricalValues(testutil.Date(t, "2024-01-02"), testutil.Date(t, "2024-01-04"))
		if err != nil {
			t.Fatalf("HistoricalValues() returned unexpected error: %v", err)
		}

		// Assert: the far-past points landed in SQLite
		cached, err := valueRepo.GetValues(testutil.Date(t, "2024-01-02"), testutil.Date(t, "2024-01-04"))
		if err != nil {
			t.Fatalf("GetValues() returned unexpected error: %v", err)
		}
		if len(cached) != 3 {
			t.Fatalf("Expected 3 cached points, got %d", len(cached))
		}
		assertDec(t, cached["2024-01-03"].InvestmentValue, "1000", "cached InvestmentValue")
	})

	t.Run("serves the far past from cache", func(t *testing.T) {
		// Setup: seed the cache with values that replay could never
		// produce, since the price source has no data
		db := testutil.SetupTestDB(t)
		valueRepo := repository.NewValueRepository(db)
		seed := []model.ValuePoint{
			{
				Date:            testutil.Date(t, "2024-01-02"),
				TotalValue:      testutil.Dec(t, "1234"),
				InvestmentValue: testutil.Dec(t, "1200"),
				CostBasis:       testutil.Dec(t, "1000"),
				CashValue:       testutil.Dec(t, "34"),
			},
			{
				Date:            testutil.Date(t, "2024-01-03"),
				TotalValue:      testutil.Dec(t, "1250"),
				InvestmentValue: testutil.Dec(t, "1216"),
				CostBasis:       testutil.Dec(t, "1000"),
				CashValue:       testutil.Dec(t, "34"),
			},
		}
		if err := valueRepo.SaveValues(seed, testutil.Date(t, "2024-02-01")); err != nil {
			t.Fatalf("SaveValues() returned unexpected error: %v", err)
		}

		svc := newHistoryFixture(t, testutil.NewFakePriceSource(), valueRepo, []model.Transaction{
			testutil.Buy(t, "2024-01-02", "VOO", "10", "100"),
		})

		// Execute
		points, err := svc.HistoricalValues(testutil.Date(t, "2024-01-02"), testutil.Date(t, "2024-01-03"))

		// Assert
		if err != nil {
			t.Fatalf("HistoricalValues() returned unexpected error: %v", err)
		}
		if len(points) != 2 {
			t.Fatalf("Expected 2 points, got %d", len(points))
		}
		assertDec(t, points[0].TotalValue, "1234", "cached Jan 2 TotalValue")
		assertDec(t, points[1].TotalValue, "1250", "cached Jan 3 TotalValue")
	})
}

// TestHistoryService_DailyPNLHistory tests the day-over-day P&L series.
//
// WHY: Daily P&L must measure price movement only. A delta must appear
// exactly on the day the close changes, and flat days must report zero
// rather than leak purchases or cash movements into the series.
func TestHistoryService_DailyPNLHistory(t *testing.T) {
	t.Run("reports the delta on the day the price moves", func(t *testing.T) {
		// Setup: base close well inside the fetch window, then a jump
		// to 110 yesterday
		today := time.Now().UTC().Truncate(24 * time.Hour)
		day := func(offset int) string { return today.AddDate(0, 0, offset).Format("2006-01-02") }

		prices := testutil.NewFakePriceSource().
			WithHistorical("VOO", day(-10), testutil.Dec(t, "100")).
			WithHistorical("VOO", day(-1), testutil.Dec(t, "110"))
		svc := newHistoryFixture(t, prices, nil, []model.Transaction{
			testutil.Buy(t, "2024-01-02", "VOO", "10", "100"),
		})

		// Execute
		points, err := svc.DailyPNLHistory(3)

		// Assert
		if err != nil {
			t.Fatalf("DailyPNLHistory() returned unexpected error: %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("Expected 3 points, got %d", len(points))
		}

		assertDec(t, points[0].DailyPNL, "0", "flat day DailyPNL")
		// 10 shares moved 100 -> 110 against a 1000 prior value
		assertDec(t, points[1].DailyPNL, "100", "jump day DailyPNL")
		assertDec(t, points[1].DailyPNLPercent, "10", "jump day DailyPNLPercent")
		assertDec(t, points[2].DailyPNL, "0", "day after DailyPNL")

		if !points[2].Date.Equal(today) {
			t.Errorf("Last point date = %s, want today %s", points[2].Date, today)
		}
	})

	t.Run("returns nothing for an empty ledger", func(t *testing.T) {
		// Setup
		svc := newHistoryFixture(t, testutil.NewFakePriceSource(), nil, nil)

		// Execute
		points, err := svc.DailyPNLHistory(15)

		// Assert
		if err != nil {
			t.Fatalf("DailyPNLHistory() returned unexpected error: %v", err)
		}
		if len(points) != 0 {
			t.Errorf("Expected no points, got %d", len(points))
		}
	})
}

// TestHistoryService_InvestmentHistory tests the monthly series.
//
// WHY: The investment chart works from transactions alone. Each month
// must carry its BUY breakdown and the end-of-month cost basis, with
// net investment as the month-over-month change so sales show up as
// negative flow.
func TestHistoryService_InvestmentHistory(t *testing.T) {
	t.Run("aggregates buys per month", func(t *testing.T) {
		// Setup
		svc := newHistoryFixture(t, testutil.NewFakePriceSource(), nil, []model.Transaction{
			testutil.Buy(t, "2024-01-05", "VOO", "10", "100"),
			testutil.Buy(t, "2024-01-20", "AAPL", "5", "200"),
			testutil.Buy(t, "2024-02-10", "VOO", "10", "110"),
			testutil.Sell(t, "2024-02-15", "VOO", "5", "120"),
		})

		// Execute
		months := svc.InvestmentHistory(testutil.Date(t, "2024-01-01"), testutil.Date(t, "2024-02-28"))

		// Assert
		if len(months) != 2 {
			t.Fatalf("Expected 2 months, got %d", len(months))
		}

		jan := months[0]
		if jan.Month != "2024-01" {
			t.Errorf("months[0].Month = %s, want 2024-01", jan.Month)
		}
		assertDec(t, jan.CostBasis, "2000", "January CostBasis")
		assertDec(t, jan.NetInvestment, "2000", "January NetInvestment")
		if len(jan.Buys) != 2 {
			t.Fatalf("Expected 2 January buys, got %d", len(jan.Buys))
		}
		if jan.Buys[0].Symbol != "AAPL" || jan.Buys[1].Symbol != "VOO" {
			t.Errorf("January buys not sorted by symbol: %v", jan.Buys)
		}
		assertDec(t, jan.Buys[1].Amount, "1000", "January VOO buy amount")

		// February: +1100 bought, -500 cost basis sold off (FIFO at 100)
		feb := months[1]
		if feb.Month != "2024-02" {
			t.Errorf("months[1].Month = %s, want 2024-02", feb.Month)
		}
		assertDec(t, feb.CostBasis, "2600", "February CostBasis")
		assertDec(t, feb.NetInvestment, "600", "February NetInvestment")
	})

	t.Run("returns nothing when the range has no buys", func(t *testing.T) {
		// Setup
		svc := newHistoryFixture(t, testutil.NewFakePriceSource(), nil, []model.Transaction{
			testutil.Buy(t, "2024-01-05", "VOO", "10", "100"),
		})

		// Execute
		months := svc.InvestmentHistory(testutil.Date(t, "2024-06-01"), testutil.Date(t, "2024-06-30"))

		// Assert
		if len(months) != 0 {
			t.Errorf("Expected no months, got %d", len(months))
		}
	})
}
