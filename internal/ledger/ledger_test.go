package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/ledger"
	"github.com/dverbeek/portfolio-tracker/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func optDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func buy(date, symbol, qty, price string) model.Transaction {
	return model.Transaction{
		Date: day(date), Asset: symbol, Action: model.ActionBuy,
		Quantity: optDec(qty), AvePrice: optDec(price),
		Amount: decimal.NullDecimal{Decimal: dec(qty).Mul(dec(price)), Valid: true},
	}
}

func sell(date, symbol, qty, price string) model.Transaction {
	return model.Transaction{
		Date: day(date), Asset: symbol, Action: model.ActionSell,
		Quantity: optDec(qty), AvePrice: optDec(price),
		Amount: decimal.NullDecimal{Decimal: dec(qty).Mul(dec(price)), Valid: true},
	}
}

func action(date, symbol string, act model.Action, qty, amount string) model.Transaction {
	txn := model.Transaction{Date: day(date), Asset: symbol, Action: act}
	if qty != "" {
		txn.Quantity = optDec(qty)
	}
	if amount != "" {
		txn.Amount = optDec(amount)
	}
	return txn
}

// fixedSplits returns the same factor for every lookup.
type fixedSplits struct{ factor decimal.Decimal }

func (f fixedSplits) AdjustmentFactor(string, time.Time, time.Time) decimal.Decimal {
	return f.factor
}

func assertDecimal(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

// TestLedger_BuySell tests the FIFO depletion path end to end.
//
// WHY: Cost-basis attribution is the core accounting guarantee. Selling
// must consume the oldest lot first and record exactly the cost that was
// removed, or every downstream P&L number is wrong.
func TestLedger_BuySell(t *testing.T) {
	t.Run("sell part of a single lot", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			sell("2024-06-01", "VOO", "4", "150"),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("6"))
		assertDecimal(t, "CostBasis", l.CostBasis("VOO"), dec("600"))

		sales := l.Sales("VOO")
		if len(sales) != 1 {
			t.Fatalf("expected 1 realized sale, got %d", len(sales))
		}
		assertDecimal(t, "sale quantity", sales[0].Quantity, dec("4"))
		assertDecimal(t, "sale cost basis", sales[0].CostBasis, dec("400"))
		assertDecimal(t, "sale proceeds", sales[0].Proceeds, dec("600"))
		assertDecimal(t, "sale PNL", sales[0].PNL(), dec("200"))
		if sales[0].ID == "" {
			t.Error("realized sale has no ID")
		}
	})

	t.Run("sell spans the oldest lot only", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			buy("2024-02-01", "VOO", "10", "200"),
			sell("2024-03-01", "VOO", "5", "250"),
		}, nil, day("2024-12-31"))

		lots := l.Lots("VOO")
		if len(lots) != 2 {
			t.Fatalf("expected 2 lots, got %d", len(lots))
		}
		assertDecimal(t, "first lot quantity", lots[0].Quantity, dec("5"))
		assertDecimal(t, "first lot cost per unit", lots[0].CostPerUnit, dec("100"))
		assertDecimal(t, "second lot quantity", lots[1].Quantity, dec("10"))
		assertDecimal(t, "second lot cost per unit", lots[1].CostPerUnit, dec("200"))

		sales := l.Sales("VOO")
		assertDecimal(t, "sale cost basis", sales[0].CostBasis, dec("500"))
	})

	t.Run("sell spans multiple lots", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			buy("2024-02-01", "VOO", "10", "200"),
			sell("2024-03-01", "VOO", "15", "250"),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("5"))
		// 10 at 100 plus 5 at 200.
		sales := l.Sales("VOO")
		assertDecimal(t, "sale cost basis", sales[0].CostBasis, dec("2000"))
		assertDecimal(t, "sale quantity", sales[0].Quantity, dec("15"))
	})

	t.Run("over-sell caps at zero", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			sell("2024-02-01", "VOO", "25", "150"),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("0"))

		// Only what was actually held is recorded as sold; proceeds keep
		// the full transaction value.
		sales := l.Sales("VOO")
		assertDecimal(t, "sale quantity", sales[0].Quantity, dec("10"))
		assertDecimal(t, "sale cost basis", sales[0].CostBasis, dec("1000"))
		assertDecimal(t, "sale proceeds", sales[0].Proceeds, dec("3750"))
	})

	t.Run("sell with nothing held records no sale", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			sell("2024-02-01", "VOO", "5", "150"),
		}, nil, day("2024-12-31"))

		if got := len(l.Sales("VOO")); got != 0 {
			t.Errorf("expected no realized sales, got %d", got)
		}
	})

	t.Run("quantity conservation across mixed sequence", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "ETH-USD", "4", "2000"),
			action("2024-01-15", "ETH-USD", model.ActionGift, "1", ""),
			sell("2024-02-01", "ETH-USD", "2", "2500"),
			action("2024-03-01", "ETH-USD", model.ActionGas, "0.5", ""),
		}, nil, day("2024-12-31"))

		soldQty := decimal.Zero
		for _, s := range l.Sales("ETH-USD") {
			soldQty = soldQty.Add(s.Quantity)
		}
		// bought+gifted = remaining + sold + gas
		remaining := l.TotalQuantity("ETH-USD")
		assertDecimal(t, "remaining+sold+gas", remaining.Add(soldQty).Add(dec("0.5")), dec("5"))
	})
}

// TestLedger_GiftGasFee tests the non-BUY acquisition and depletion actions.
//
// WHY: Gifts carry zero cost basis and gas depletions must not create
// realized sales; mixing those up would fabricate P&L out of thin air.
func TestLedger_GiftGasFee(t *testing.T) {
	t.Run("gift adds a zero-cost lot", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			action("2024-02-01", "BTC-USD", model.ActionGift, "5", ""),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("BTC-USD"), dec("5"))
		assertDecimal(t, "CostBasis", l.CostBasis("BTC-USD"), dec("0"))
	})

	t.Run("gas depletes FIFO without recording a sale", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "ETH-USD", "2", "2000"),
			action("2024-02-01", "ETH-USD", model.ActionGas, "0.25", ""),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("ETH-USD"), dec("1.75"))
		if got := len(l.Sales("ETH-USD")); got != 0 {
			t.Errorf("gas must not record a sale, got %d", got)
		}
	})

	t.Run("fees accumulate", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			action("2024-01-01", "VOO", model.ActionFee, "", "2.50"),
			action("2024-02-01", "VOO", model.ActionFee, "", "1.25"),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalFees", l.TotalFees(), dec("3.75"))
	})
}

// TestLedger_Fix tests quantity reconciliation in both directions.
//
// WHY: FIX must land the position exactly on the target quantity whether
// shares are missing or surplus, and must never invent cost basis or
// realized sales while doing so.
func TestLedger_Fix(t *testing.T) {
	t.Run("fix up appends a zero-cost lot", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			action("2024-02-01", "VOO", model.ActionFix, "12", ""),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("12"))
		assertDecimal(t, "CostBasis", l.CostBasis("VOO"), dec("1000"))
	})

	t.Run("fix down depletes FIFO without a sale", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			action("2024-02-01", "VOO", model.ActionFix, "7", ""),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("7"))
		assertDecimal(t, "CostBasis", l.CostBasis("VOO"), dec("700"))
		if got := len(l.Sales("VOO")); got != 0 {
			t.Errorf("fix must not record a sale, got %d", got)
		}
	})

	t.Run("fix to current quantity is a no-op", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			action("2024-02-01", "VOO", model.ActionFix, "10", ""),
		}, nil, day("2024-12-31"))

		lots := l.Lots("VOO")
		if len(lots) != 1 {
			t.Fatalf("expected 1 lot, got %d", len(lots))
		}
		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("10"))
	})
}

// TestLedger_CashSnapshots tests as-of cash balance lookups.
//
// WHY: Cash is an absolute snapshot, not a running total. The as-of
// lookup must pick the latest snapshot on or before the query date and
// later snapshots must fully replace earlier ones.
func TestLedger_CashSnapshots(t *testing.T) {
	l := ledger.Replay([]model.Transaction{
		action("2024-01-01", "CASH", model.ActionCash, "", "1000"),
		action("2024-03-01", "CASH", model.ActionCash, "", "1500"),
	}, nil, day("2024-12-31"))

	t.Run("between snapshots uses the earlier one", func(t *testing.T) {
		assertDecimal(t, "CashBalance", l.CashBalance(day("2024-02-15")), dec("1000"))
	})

	t.Run("after the last snapshot uses it", func(t *testing.T) {
		assertDecimal(t, "CashBalance", l.CashBalance(day("2024-04-01")), dec("1500"))
	})

	t.Run("before any snapshot is zero", func(t *testing.T) {
		assertDecimal(t, "CashBalance", l.CashBalance(day("2023-12-31")), dec("0"))
	})

	t.Run("same-date snapshot overwrites", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			action("2024-01-01", "CASH", model.ActionCash, "", "1000"),
			action("2024-01-01", "CASH", model.ActionCash, "", "1200"),
		}, nil, day("2024-12-31"))
		assertDecimal(t, "CashBalance", l.CashBalance(day("2024-01-02")), dec("1200"))
	})
}

// TestLedger_SplitAdjustment tests quantity/price normalization.
//
// WHY: Every stored lot must be expressed in reference-date share
// counts. A 2:1 split doubles quantities and halves prices while the
// lot's total cost stays the same.
func TestLedger_SplitAdjustment(t *testing.T) {
	t.Run("buy is adjusted by the split factor", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "NVDA", "10", "100"),
		}, fixedSplits{factor: dec("2")}, day("2024-12-31"))

		lots := l.Lots("NVDA")
		assertDecimal(t, "quantity", lots[0].Quantity, dec("20"))
		assertDecimal(t, "cost per unit", lots[0].CostPerUnit, dec("50"))
		assertDecimal(t, "total cost", lots[0].TotalCost(), dec("1000"))
	})

	t.Run("zero factor leaves the price unadjusted", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "NVDA", "10", "100"),
		}, fixedSplits{factor: dec("0")}, day("2024-12-31"))

		lots := l.Lots("NVDA")
		assertDecimal(t, "quantity", lots[0].Quantity, dec("0"))
		assertDecimal(t, "cost per unit", lots[0].CostPerUnit, dec("100"))
	})

	t.Run("dividends and cash are never adjusted", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			action("2024-01-01", "VOO", model.ActionDividend, "", "10"),
			action("2024-01-01", "CASH", model.ActionCash, "", "500"),
		}, fixedSplits{factor: dec("2")}, day("2024-12-31"))

		assertDecimal(t, "TotalDividends", l.TotalDividends(), dec("10"))
		assertDecimal(t, "CashBalance", l.CashBalance(day("2024-02-01")), dec("500"))
	})
}

// TestLedger_Replay tests ordering and determinism of replay.
//
// WHY: Transactions arrive from files in arbitrary order; replay must
// sort by date while preserving input order for same-date records, and
// two replays of the same input must agree exactly.
func TestLedger_Replay(t *testing.T) {
	t.Run("out-of-order input is sorted by date", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			sell("2024-06-01", "VOO", "4", "150"),
			buy("2024-01-01", "VOO", "10", "100"),
		}, nil, day("2024-12-31"))

		// The buy lands first, so the sell finds shares to deplete.
		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("6"))
		if got := len(l.Sales("VOO")); got != 1 {
			t.Fatalf("expected 1 sale, got %d", got)
		}
	})

	t.Run("same-date ties keep input order", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			sell("2024-01-01", "VOO", "10", "110"),
		}, nil, day("2024-12-31"))

		assertDecimal(t, "TotalQuantity", l.TotalQuantity("VOO"), dec("0"))
		sales := l.Sales("VOO")
		if len(sales) != 1 {
			t.Fatalf("expected 1 sale, got %d", len(sales))
		}
		assertDecimal(t, "sale cost basis", sales[0].CostBasis, dec("1000"))
	})

	t.Run("replay is deterministic", func(t *testing.T) {
		txns := []model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			buy("2024-02-01", "QQQ", "5", "400"),
			sell("2024-03-01", "VOO", "3", "120"),
			action("2024-04-01", "CASH", model.ActionCash, "", "2500"),
		}
		a := ledger.Replay(txns, nil, day("2024-12-31"))
		b := ledger.Replay(txns, nil, day("2024-12-31"))

		for _, sym := range []string{"VOO", "QQQ"} {
			assertDecimal(t, "quantity "+sym, a.TotalQuantity(sym), b.TotalQuantity(sym))
			assertDecimal(t, "cost basis "+sym, a.CostBasis(sym), b.CostBasis(sym))
		}
		assertDecimal(t, "cash", a.CashBalance(day("2024-12-31")), b.CashBalance(day("2024-12-31")))
	})
}

// TestLedger_Aggregations tests the derived read views.
func TestLedger_Aggregations(t *testing.T) {
	t.Run("dividend summaries per symbol", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			action("2024-01-15", "VOO", model.ActionDividend, "", "12.50"),
			action("2024-04-15", "VOO", model.ActionDividend, "", "13.00"),
			action("2024-02-01", "SCHD", model.ActionDividend, "", "8.00"),
		}, nil, day("2024-12-31"))

		summaries := l.DividendSummaries()
		if len(summaries) != 2 {
			t.Fatalf("expected 2 summaries, got %d", len(summaries))
		}
		if summaries[0].Symbol != "SCHD" || summaries[1].Symbol != "VOO" {
			t.Errorf("summaries not sorted by symbol: %v, %v", summaries[0].Symbol, summaries[1].Symbol)
		}
		assertDecimal(t, "VOO total", summaries[1].TotalAmount, dec("25.50"))
		if summaries[1].PaymentCount != 2 {
			t.Errorf("VOO payment count = %d, want 2", summaries[1].PaymentCount)
		}
		assertDecimal(t, "TotalDividends", l.TotalDividends(), dec("33.50"))
	})

	t.Run("sold assets aggregate across sales", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "AAPL", "10", "100"),
			sell("2024-02-01", "AAPL", "4", "150"),
			sell("2024-03-01", "AAPL", "6", "200"),
		}, nil, day("2024-12-31"))

		sold := l.SoldAssets()
		if len(sold) != 1 {
			t.Fatalf("expected 1 sold asset, got %d", len(sold))
		}
		s := sold[0]
		assertDecimal(t, "quantity", s.Quantity, dec("10"))
		assertDecimal(t, "cost basis", s.CostBasis, dec("1000"))
		assertDecimal(t, "proceeds", s.Proceeds, dec("1800"))
		assertDecimal(t, "pnl", s.PNL, dec("800"))
		assertDecimal(t, "pnl percent", s.PNLPercent, dec("80"))
	})

	t.Run("realized totals", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "AAPL", "10", "100"),
			sell("2024-02-01", "AAPL", "10", "150"),
		}, nil, day("2024-12-31"))

		pnl, soldCost := l.RealizedTotals()
		assertDecimal(t, "realized pnl", pnl, dec("500"))
		assertDecimal(t, "sold cost basis", soldCost, dec("1000"))
	})

	t.Run("symbols excludes closed positions", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "AAPL", "10", "100"),
			buy("2024-01-01", "VOO", "5", "400"),
			sell("2024-02-01", "AAPL", "10", "150"),
		}, nil, day("2024-12-31"))

		symbols := l.Symbols()
		if len(symbols) != 1 || symbols[0] != "VOO" {
			t.Errorf("Symbols() = %v, want [VOO]", symbols)
		}

		traded := l.TradedSymbols()
		if len(traded) != 2 {
			t.Errorf("TradedSymbols() = %v, want AAPL and VOO", traded)
		}
	})
}

// TestLedger_HoldingDays tests open-period day counting.
//
// WHY: Annualized returns divide by holding time. Gaps between closing
// and reopening a position must not count, and a brand-new position must
// report at least one day.
func TestLedger_HoldingDays(t *testing.T) {
	t.Run("open position counts to the reference date", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
		}, nil, day("2024-01-31"))

		if got := l.HoldingDays("VOO"); got != 30 {
			t.Errorf("HoldingDays = %d, want 30", got)
		}
	})

	t.Run("closed and reopened skips the gap", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			sell("2024-01-11", "VOO", "10", "110"), // held 10 days
			buy("2024-03-01", "VOO", "10", "105"),
		}, nil, day("2024-03-06")) // held 5 days

		if got := l.HoldingDays("VOO"); got != 15 {
			t.Errorf("HoldingDays = %d, want 15", got)
		}
	})

	t.Run("same-day round trip reports one day", func(t *testing.T) {
		l := ledger.Replay([]model.Transaction{
			buy("2024-01-01", "VOO", "10", "100"),
			sell("2024-01-01", "VOO", "10", "110"),
		}, nil, day("2024-06-01"))

		if got := l.HoldingDays("VOO"); got != 1 {
			t.Errorf("HoldingDays = %d, want 1", got)
		}
	})

	t.Run("unknown symbol reports zero", func(t *testing.T) {
		l := ledger.New(nil, day("2024-06-01"))
		if got := l.HoldingDays("VOO"); got != 0 {
			t.Errorf("HoldingDays = %d, want 0", got)
		}
	})
}
