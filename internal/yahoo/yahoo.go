// Package yahoo implements a minimal client for the Yahoo Finance
// chart API, covering daily history, intraday samples and split events.
package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// FinanceClient provides methods for fetching market data from the
// Yahoo Finance chart API. It wraps an HTTP client and builds the
// query URLs for the supported lookup shapes.
type FinanceClient struct {
	httpClient *http.Client
}

// NewFinanceClient creates a Yahoo Finance client with a 15 second
// request timeout.
func NewFinanceClient() *FinanceClient {
	return &FinanceClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// QueryDailyRange fetches the last `days` days of daily candles for a
// symbol using Yahoo's range-based query format.
//
// Returns an error if the HTTP request fails, the API reports an error,
// or the response contains no results.
func (c *FinanceClient) QueryDailyRange(symbol string, days int) (Response, error) {
	u := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=%dd",
		url.PathEscape(symbol), days,
	)
	return c.queryYahoo(u, symbol)
}

// QueryByDateRange fetches daily candles for a symbol between two dates
// (inclusive) using Yahoo's Unix-timestamp period format. Used for
// historical backfills where the range-based format is too coarse.
func (c *FinanceClient) QueryByDateRange(symbol string, start, end time.Time) (Response, error) {
	u := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		url.PathEscape(symbol), start.Unix(), end.Unix(),
	)
	return c.queryYahoo(u, symbol)
}

// QueryIntraday fetches intraday candles at the given interval
// (e.g. "5m") over the last `days` days, including pre and post market
// sessions so forward-filling has data outside regular hours.
func (c *FinanceClient) QueryIntraday(symbol, interval string, days int) (Response, error) {
	u := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%dd&includePrePost=true",
		url.PathEscape(symbol), url.QueryEscape(interval), days,
	)
	return c.queryYahoo(u, symbol)
}

// QueryHourlyRange fetches hourly candles over the last `days` days.
// Used for the midnight-boundary previous close of continuously traded
// assets.
func (c *FinanceClient) QueryHourlyRange(symbol string, days int) (Response, error) {
	u := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1h&range=%dd&includePrePost=true",
		url.PathEscape(symbol), days,
	)
	return c.queryYahoo(u, symbol)
}

// QuerySplits fetches the full split-event history for a symbol by
// requesting the maximum range with events=splits.
func (c *FinanceClient) QuerySplits(symbol string) (Response, error) {
	u := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=max&events=splits",
		url.PathEscape(symbol),
	)
	return c.queryYahoo(u, symbol)
}

// ParseChart converts a raw chart response into a PriceChart. Slots
// with a null close are dropped; remaining candles are returned in
// timestamp order.
//
// Returns an error if the response has no result, no timestamps, or no
// quote arrays.
func ParseChart(resp Response) (PriceChart, error) {
	if len(resp.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("empty chart result")
	}
	result := resp.Chart.Result[0]

	if len(result.Timestamp) == 0 {
		return PriceChart{}, fmt.Errorf("no price data returned")
	}
	if len(result.Indicators.Quote) == 0 {
		return PriceChart{}, fmt.Errorf("no quote data returned")
	}

	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return PriceChart{}, fmt.Errorf("mismatched data lengths")
	}

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil {
			continue
		}
		candles = append(candles, Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *quote.Close[i],
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	return PriceChart{
		Symbol:   result.Meta.Symbol,
		Currency: result.Meta.Currency,
		Timezone: result.Meta.Timezone,
		Candles:  candles,
	}, nil
}

// ParseSplits extracts the split events from a chart response queried
// with events=splits, sorted by date ascending. A response with no
// events yields an empty slice, not an error.
func ParseSplits(resp Response) ([]Split, error) {
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}
	result := resp.Chart.Result[0]
	if result.Events == nil || len(result.Events.Splits) == 0 {
		return []Split{}, nil
	}

	splits := make([]Split, 0, len(result.Events.Splits))
	for _, ev := range result.Events.Splits {
		if ev.Denominator == 0 {
			continue
		}
		splits = append(splits, Split{
			Date:   time.Unix(ev.Date, 0).UTC(),
			Factor: ev.Numerator / ev.Denominator,
		})
	}
	sort.Slice(splits, func(i, j int) bool { return splits[i].Date.Before(splits[j].Date) })
	return splits, nil
}

// queryYahoo executes one GET against the chart API. The browser
// User-Agent is required; Yahoo rejects requests without one.
func (c *FinanceClient) queryYahoo(u, symbol string) (Response, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("decoding response for %s: %w", symbol, err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error for %s: %s", symbol, *response.Chart.Error)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	return response, nil
}
