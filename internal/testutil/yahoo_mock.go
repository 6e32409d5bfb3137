package testutil

import (
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/yahoo"
)

// MockChartClient is a mock implementation of the chart client used by
// the market data services. Each query kind returns its own configured
// response so a test can exercise fallback paths.
type MockChartClient struct {
	// DailyResponse is returned by QueryDailyRange
	DailyResponse yahoo.Response
	// DailyErr is returned by QueryDailyRange
	DailyErr error
	// RangeResponse is returned by QueryByDateRange
	RangeResponse yahoo.Response
	// RangeErr is returned by QueryByDateRange
	RangeErr error
	// IntradayResponse is returned by QueryIntraday
	IntradayResponse yahoo.Response
	// IntradayErr is returned by QueryIntraday
	IntradayErr error
	// HourlyResponse is returned by QueryHourlyRange
	HourlyResponse yahoo.Response
	// HourlyErr is returned by QueryHourlyRange
	HourlyErr error
	// SplitsResponse is returned by QuerySplits
	SplitsResponse yahoo.Response
	// SplitsErr is returned by QuerySplits
	SplitsErr error

	// RangeCalls counts QueryByDateRange invocations
	RangeCalls int
	// SplitsCalls counts QuerySplits invocations
	SplitsCalls int
}

// QueryDailyRange returns the configured daily response.
func (m *MockChartClient) QueryDailyRange(_ string, _ int) (yahoo.Response, error) {
	return m.DailyResponse, m.DailyErr
}

// QueryByDateRange returns the configured range response.
func (m *MockChartClient) QueryByDateRange(_ string, _, _ time.Time) (yahoo.Response, error) {
	m.RangeCalls++
	return m.RangeResponse, m.RangeErr
}

// QueryIntraday returns the configured intraday response.
func (m *MockChartClient) QueryIntraday(_, _ string, _ int) (yahoo.Response, error) {
	return m.IntradayResponse, m.IntradayErr
}

// QueryHourlyRange returns the configured hourly response.
func (m *MockChartClient) QueryHourlyRange(_ string, _ int) (yahoo.Response, error) {
	return m.HourlyResponse, m.HourlyErr
}

// QuerySplits returns the configured splits response.
func (m *MockChartClient) QuerySplits(_ string) (yahoo.Response, error) {
	m.SplitsCalls++
	return m.SplitsResponse, m.SplitsErr
}

// ChartResponse builds a chart response with one close per timestamp.
func ChartResponse(symbol string, timestamps []time.Time, closes []float64) yahoo.Response {
	ts := make([]int64, len(timestamps))
	for i, t := range timestamps {
		ts[i] = t.Unix()
	}
	closePtrs := make([]*float64, len(closes))
	for i := range closes {
		c := closes[i]
		closePtrs[i] = &c
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta:      yahoo.Meta{Symbol: symbol, Currency: "USD", Timezone: "EST"},
					Timestamp: ts,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{{Close: closePtrs}},
					},
				},
			},
		},
	}
}

// DailyChartResponse builds a chart response with one close per ISO
// date, each stamped at UTC midnight.
func DailyChartResponse(symbol string, days map[string]float64) yahoo.Response {
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	// ParseChart sorts by timestamp, so insertion order does not matter.
	timestamps := make([]time.Time, 0, len(dates))
	closes := make([]float64, 0, len(dates))
	for _, d := range dates {
		t, _ := time.Parse("2006-01-02", d)
		timestamps = append(timestamps, t)
		closes = append(closes, days[d])
	}
	return ChartResponse(symbol, timestamps, closes)
}

// SplitsResponse builds a split-events response. Each entry maps a
// split date to its numerator and denominator.
func SplitsResponse(symbol string, splits map[time.Time][2]float64) yahoo.Response {
	events := make(map[string]yahoo.SplitEvent, len(splits))
	for date, ratio := range splits {
		events[date.Format("20060102")] = yahoo.SplitEvent{
			Date:        date.Unix(),
			Numerator:   ratio[0],
			Denominator: ratio[1],
		}
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta:   yahoo.Meta{Symbol: symbol, Currency: "USD"},
					Events: &yahoo.Events{Splits: events},
				},
			},
		},
	}
}
