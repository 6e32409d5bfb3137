package yahoo_test

import (
	"testing"
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/yahoo"
)

func fptr(f float64) *float64 { return &f }

func chartResponse(timestamps []int64, closes []*float64) yahoo.Response {
	var resp yahoo.Response
	resp.Chart.Result = []yahoo.Result{{
		Meta:      yahoo.Meta{Symbol: "TEST", Currency: "USD"},
		Timestamp: timestamps,
		Indicators: yahoo.IndicatorsContainer{
			Quote: []yahoo.Quote{{Close: closes}},
		},
	}}
	return resp
}

// TestParseChart tests conversion of raw chart responses.
//
// WHY: Yahoo emits null closes for intraday slots without trades.
// Parsing must drop those instead of fabricating zero prices, and must
// reject malformed responses outright.
func TestParseChart(t *testing.T) {
	t.Run("parses candles in order", func(t *testing.T) {
		resp := chartResponse(
			[]int64{1704067200, 1704153600},
			[]*float64{fptr(101.5), fptr(102.25)},
		)

		chart, err := yahoo.ParseChart(resp)
		if err != nil {
			t.Fatalf("ParseChart() returned unexpected error: %v", err)
		}
		if chart.Symbol != "TEST" {
			t.Errorf("Symbol = %q, want TEST", chart.Symbol)
		}
		if len(chart.Candles) != 2 {
			t.Fatalf("expected 2 candles, got %d", len(chart.Candles))
		}
		if chart.Candles[0].Close != 101.5 {
			t.Errorf("first close = %v, want 101.5", chart.Candles[0].Close)
		}
		want := time.Unix(1704067200, 0).UTC()
		if !chart.Candles[0].Timestamp.Equal(want) {
			t.Errorf("first timestamp = %v, want %v", chart.Candles[0].Timestamp, want)
		}
	})

	t.Run("drops null closes", func(t *testing.T) {
		resp := chartResponse(
			[]int64{1704067200, 1704153600, 1704240000},
			[]*float64{fptr(100), nil, fptr(103)},
		)

		chart, err := yahoo.ParseChart(resp)
		if err != nil {
			t.Fatalf("ParseChart() returned unexpected error: %v", err)
		}
		if len(chart.Candles) != 2 {
			t.Fatalf("expected 2 candles after dropping null, got %d", len(chart.Candles))
		}
		if chart.Candles[1].Close != 103 {
			t.Errorf("second close = %v, want 103", chart.Candles[1].Close)
		}
	})

	t.Run("rejects empty result", func(t *testing.T) {
		if _, err := yahoo.ParseChart(yahoo.Response{}); err == nil {
			t.Error("expected error for empty response, got nil")
		}
	})

	t.Run("rejects mismatched lengths", func(t *testing.T) {
		resp := chartResponse([]int64{1704067200, 1704153600}, []*float64{fptr(100)})
		if _, err := yahoo.ParseChart(resp); err == nil {
			t.Error("expected error for mismatched lengths, got nil")
		}
	})
}

// TestParseSplits tests split-event extraction.
func TestParseSplits(t *testing.T) {
	t.Run("computes factors and sorts by date", func(t *testing.T) {
		var resp yahoo.Response
		resp.Chart.Result = []yahoo.Result{{
			Meta:      yahoo.Meta{Symbol: "NVDA"},
			Timestamp: []int64{1704067200},
			Events: &yahoo.Events{Splits: map[string]yahoo.SplitEvent{
				"1717372800": {Date: 1717372800, Numerator: 10, Denominator: 1, SplitRatio: "10:1"},
				"1625097600": {Date: 1625097600, Numerator: 4, Denominator: 1, SplitRatio: "4:1"},
			}},
		}}

		splits, err := yahoo.ParseSplits(resp)
		if err != nil {
			t.Fatalf("ParseSplits() returned unexpected error: %v", err)
		}
		if len(splits) != 2 {
			t.Fatalf("expected 2 splits, got %d", len(splits))
		}
		if splits[0].Factor != 4 || splits[1].Factor != 10 {
			t.Errorf("factors = %v, %v; want 4, 10", splits[0].Factor, splits[1].Factor)
		}
		if !splits[0].Date.Before(splits[1].Date) {
			t.Error("splits not sorted by date")
		}
	})

	t.Run("no events yields empty slice", func(t *testing.T) {
		resp := chartResponse([]int64{1704067200}, []*float64{fptr(100)})
		splits, err := yahoo.ParseSplits(resp)
		if err != nil {
			t.Fatalf("ParseSplits() returned unexpected error: %v", err)
		}
		if len(splits) != 0 {
			t.Errorf("expected no splits, got %d", len(splits))
		}
	})
}
