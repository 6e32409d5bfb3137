package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// FakePriceSource is an in-memory market data source for testing. It
// returns predefined prices instead of calling the provider; symbols
// without an entry are simply absent, the same shape a live lookup
// failure takes.
type FakePriceSource struct {
	// Spot maps symbol to its current price
	Spot map[string]decimal.Decimal
	// PrevClose maps symbol to its previous close
	PrevClose map[string]decimal.Decimal
	// Historical maps symbol to a date (2006-01-02) to close map
	Historical map[string]map[string]decimal.Decimal
	// Intraday maps symbol to its intraday sample series
	Intraday map[string][]model.PricePoint
	// HistoricalErr, when set, fails every HistoricalPrices call
	HistoricalErr error
	// HistoricalCalls counts HistoricalPrices invocations per symbol
	HistoricalCalls map[string]int
}

// NewFakePriceSource creates an empty FakePriceSource.
func NewFakePriceSource() *FakePriceSource {
	return &FakePriceSource{
		Spot:            make(map[string]decimal.Decimal),
		PrevClose:       make(map[string]decimal.Decimal),
		Historical:      make(map[string]map[string]decimal.Decimal),
		Intraday:        make(map[string][]model.PricePoint),
		HistoricalCalls: make(map[string]int),
	}
}

// WithSpot sets the current price for a symbol.
func (f *FakePriceSource) WithSpot(symbol string, price decimal.Decimal) *FakePriceSource {
	f.Spot[symbol] = price
	return f
}

// WithPrevClose sets the previous close for a symbol.
func (f *FakePriceSource) WithPrevClose(symbol string, price decimal.Decimal) *FakePriceSource {
	f.PrevClose[symbol] = price
	return f
}

// WithHistorical sets one historical close for a symbol.
func (f *FakePriceSource) WithHistorical(symbol, date string, price decimal.Decimal) *FakePriceSource {
	if f.Historical[symbol] == nil {
		f.Historical[symbol] = make(map[string]decimal.Decimal)
	}
	f.Historical[symbol][date] = price
	return f
}

// WithIntraday sets the intraday series for a symbol.
func (f *FakePriceSource) WithIntraday(symbol string, points []model.PricePoint) *FakePriceSource {
	f.Intraday[symbol] = points
	return f
}

// Prices returns the configured spot prices for the requested symbols.
func (f *FakePriceSource) Prices(symbols []string) map[string]decimal.Decimal {
	return f.subset(f.Spot, symbols)
}

// PreviousClose returns the configured previous closes.
func (f *FakePriceSource) PreviousClose(symbols []string) map[string]decimal.Decimal {
	return f.subset(f.PrevClose, symbols)
}

// HistoricalPrices returns the configured closes within [start, end].
func (f *FakePriceSource) HistoricalPrices(symbol string, start, end time.Time) (map[string]decimal.Decimal, error) {
	f.HistoricalCalls[symbol]++
	if f.HistoricalErr != nil {
		return nil, f.HistoricalErr
	}

	result := make(map[string]decimal.Decimal)
	for date, price := range f.Historical[symbol] {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("bad fixture date %q: %w", date, err)
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		result[date] = price
	}
	return result, nil
}

// IntradayPrices returns the configured intraday series for the
// requested symbols.
func (f *FakePriceSource) IntradayPrices(symbols []string, interval string, days int) map[string][]model.PricePoint {
	result := make(map[string][]model.PricePoint)
	for _, symbol := range symbols {
		if points, ok := f.Intraday[symbol]; ok {
			result[symbol] = points
		}
	}
	return result
}

func (f *FakePriceSource) subset(prices map[string]decimal.Decimal, symbols []string) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	for _, symbol := range symbols {
		if price, ok := prices[symbol]; ok {
			result[symbol] = price
		}
	}
	return result
}

// FakeSplitSource returns a fixed adjustment factor per symbol for
// every date pair, or 1 when the symbol has no entry.
type FakeSplitSource struct {
	// Factors maps symbol to its adjustment factor
	Factors map[string]decimal.Decimal
}

// NewFakeSplitSource creates a FakeSplitSource with no splits.
func NewFakeSplitSource() *FakeSplitSource {
	return &FakeSplitSource{Factors: make(map[string]decimal.Decimal)}
}

// AdjustmentFactor returns the configured factor for the symbol.
func (f *FakeSplitSource) AdjustmentFactor(symbol string, txnDate, targetDate time.Time) decimal.Decimal {
	if factor, ok := f.Factors[symbol]; ok {
		return factor
	}
	return decimal.NewFromInt(1)
}
