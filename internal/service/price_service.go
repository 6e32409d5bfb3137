// Package service contains the business logic: market data access with
// caching, split adjustment, the live portfolio with its valuation
// engine, and the historical and intraday reconstructors.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dverbeek/portfolio-tracker/internal/model"
	"github.com/dverbeek/portfolio-tracker/internal/repository"
	"github.com/dverbeek/portfolio-tracker/internal/yahoo"
)

// ChartClient is the subset of the Yahoo Finance client used by the
// market data services. Declared here so tests can substitute a fake.
type ChartClient interface {
	QueryDailyRange(symbol string, days int) (yahoo.Response, error)
	QueryByDateRange(symbol string, start, end time.Time) (yahoo.Response, error)
	QueryIntraday(symbol, interval string, days int) (yahoo.Response, error)
	QueryHourlyRange(symbol string, days int) (yahoo.Response, error)
	QuerySplits(symbol string) (yahoo.Response, error)
}

// priceTTL bounds how long spot and previous-close prices are reused
// before hitting the provider again.
const priceTTL = 5 * time.Minute

// batchLimit bounds concurrent provider requests per batch call.
const batchLimit = 5

type cachedPrice struct {
	price   decimal.Decimal
	expires time.Time
}

type cachedPoints struct {
	points  []model.PricePoint
	expires time.Time
}

// PriceService fetches market prices with short-lived in-memory caches
// and a persistent SQLite cache for historical closes. Batch lookups
// return per-symbol results; a symbol that fails is simply absent from
// the result map, never an error for the whole batch.
type PriceService struct {
	client    ChartClient
	priceRepo *repository.PriceRepository
	now       func() time.Time

	mu            sync.Mutex
	spotCache     map[string]cachedPrice
	prevCache     map[string]cachedPrice
	intradayCache map[string]cachedPoints
}

// NewPriceService creates a PriceService. priceRepo may be nil, which
// disables the persistent historical cache (used by some tests).
func NewPriceService(client ChartClient, priceRepo *repository.PriceRepository) *PriceService {
	return &PriceService{
		client:        client,
		priceRepo:     priceRepo,
		now:           time.Now,
		spotCache:     make(map[string]cachedPrice),
		prevCache:     make(map[string]cachedPrice),
		intradayCache: make(map[string]cachedPoints),
	}
}

// easternMidnight returns the most recent US/Eastern midnight at or
// before now. Continuously traded assets use it as the day boundary so
// intraday P&L lines up with the daily chart.
func easternMidnight(now time.Time) time.Time {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// isContinuous reports whether a symbol trades around the clock.
func isContinuous(symbol string) bool {
	for _, suffix := range []string{"-USD", "-USDT", "-BTC", "-ETH"} {
		if len(symbol) > len(suffix) && symbol[len(symbol)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// Prices returns the current price per symbol. It prefers the latest
// one-minute intraday sample and falls back to the latest daily close.
func (s *PriceService) Prices(symbols []string) map[string]decimal.Decimal {
	return s.batch(symbols, s.spotCache, func(symbol string) (decimal.Decimal, error) {
		if resp, err := s.client.QueryIntraday(symbol, "1m", 1); err == nil {
			if chart, err := yahoo.ParseChart(resp); err == nil && len(chart.Candles) > 0 {
				return decimal.NewFromFloat(chart.Candles[len(chart.Candles)-1].Close), nil
			}
		}

		resp, err := s.client.QueryDailyRange(symbol, 5)
		if err != nil {
			return decimal.Decimal{}, err
		}
		chart, err := yahoo.ParseChart(resp)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if len(chart.Candles) == 0 {
			return decimal.Decimal{}, fmt.Errorf("no price data for %s", symbol)
		}
		return decimal.NewFromFloat(chart.Candles[len(chart.Candles)-1].Close), nil
	})
}

// PreviousClose returns the previous-close price per symbol.
//
// Continuously traded symbols are priced at the last hourly candle on
// or before the most recent US/Eastern midnight. Scheduled-market
// symbols use the prior completed session's daily close; today's
// partial bar is dropped when present.
func (s *PriceService) PreviousClose(symbols []string) map[string]decimal.Decimal {
	return s.batch(symbols, s.prevCache, func(symbol string) (decimal.Decimal, error) {
		if isContinuous(symbol) {
			return s.continuousPreviousClose(symbol)
		}
		return s.sessionPreviousClose(symbol)
	})
}

func (s *PriceService) continuousPreviousClose(symbol string) (decimal.Decimal, error) {
	resp, err := s.client.QueryHourlyRange(symbol, 3)
	if err != nil {
		return decimal.Decimal{}, err
	}
	chart, err := yahoo.ParseChart(resp)
	if err != nil {
		return decimal.Decimal{}, err
	}

	boundary := easternMidnight(s.now())
	var closePrice float64
	found := false
	for _, c := range chart.Candles {
		if !c.Timestamp.After(boundary) {
			closePrice = c.Close
			found = true
		}
	}
	if !found {
		return decimal.Decimal{}, fmt.Errorf("no candle before midnight boundary for %s", symbol)
	}
	return decimal.NewFromFloat(closePrice), nil
}

func (s *PriceService) sessionPreviousClose(symbol string) (decimal.Decimal, error) {
	resp, err := s.client.QueryDailyRange(symbol, 7)
	if err != nil {
		return decimal.Decimal{}, err
	}
	chart, err := yahoo.ParseChart(resp)
	if err != nil {
		return decimal.Decimal{}, err
	}
	candles := chart.Candles
	if len(candles) == 0 {
		return decimal.Decimal{}, fmt.Errorf("no daily candles for %s", symbol)
	}

	// Drop today's still-running session if the provider included it.
	today := s.now().UTC().Format("2006-01-02")
	last := candles[len(candles)-1]
	if last.Timestamp.UTC().Format("2006-01-02") == today {
		candles = candles[:len(candles)-1]
	}
	if len(candles) == 0 {
		return decimal.Decimal{}, fmt.Errorf("no completed session for %s", symbol)
	}
	return decimal.NewFromFloat(candles[len(candles)-1].Close), nil
}

// HistoricalPrices returns one close per trading day for the range,
// keyed by ISO date. Cached rows are served from SQLite; the provider
// is only asked for dates past the cached frontier, and new old-enough
// rows are written back.
func (s *PriceService) HistoricalPrices(symbol string, start, end time.Time) (map[string]decimal.Decimal, error) {
	cached := map[string]decimal.Decimal{}
	if s.priceRepo != nil {
		var err error
		cached, err = s.priceRepo.GetPrices(symbol, start, end)
		if err != nil {
			return nil, err
		}
	}

	fetchStart := start
	if len(cached) > 0 {
		latest := ""
		for day := range cached {
			if day > latest {
				latest = day
			}
		}
		latestDate, err := repository.ParseTime(latest)
		if err != nil {
			return nil, err
		}
		if next := latestDate.AddDate(0, 0, 1); next.After(fetchStart) {
			fetchStart = next
		}
	}

	if !fetchStart.After(end) {
		resp, err := s.client.QueryByDateRange(symbol, fetchStart, end.AddDate(0, 0, 1))
		if err == nil {
			if chart, perr := yahoo.ParseChart(resp); perr == nil {
				fetched := make(map[string]decimal.Decimal, len(chart.Candles))
				for _, c := range chart.Candles {
					day := c.Timestamp.UTC().Format("2006-01-02")
					if day < start.Format("2006-01-02") || day > end.Format("2006-01-02") {
						continue
					}
					fetched[day] = decimal.NewFromFloat(c.Close)
				}
				if s.priceRepo != nil {
					if serr := s.priceRepo.SavePrices(symbol, fetched, s.now()); serr != nil {
						return nil, serr
					}
				}
				for day, price := range fetched {
					cached[day] = price
				}
			}
		}
		// A provider failure is not fatal; the cached portion still serves.
	}

	return cached, nil
}

// IntradayPrices returns intraday samples per symbol over the last
// `days` days at the given interval.
func (s *PriceService) IntradayPrices(symbols []string, interval string, days int) map[string][]model.PricePoint {
	results := make(map[string][]model.PricePoint, len(symbols))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(batchLimit)

	for _, symbol := range symbols {
		symbol := symbol
		key := fmt.Sprintf("%s/%s/%d", symbol, interval, days)

		s.mu.Lock()
		entry, ok := s.intradayCache[key]
		s.mu.Unlock()
		if ok && s.now().Before(entry.expires) {
			// Workers for earlier symbols may already be writing.
			mu.Lock()
			results[symbol] = entry.points
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			resp, err := s.client.QueryIntraday(symbol, interval, days)
			if err != nil {
				return nil // absent symbol, not a batch failure
			}
			chart, err := yahoo.ParseChart(resp)
			if err != nil {
				return nil
			}

			points := make([]model.PricePoint, 0, len(chart.Candles))
			for _, c := range chart.Candles {
				points = append(points, model.PricePoint{
					Timestamp: c.Timestamp,
					Price:     decimal.NewFromFloat(c.Close),
				})
			}

			s.mu.Lock()
			s.intradayCache[key] = cachedPoints{points: points, expires: s.now().Add(priceTTL)}
			s.mu.Unlock()

			mu.Lock()
			results[symbol] = points
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return results
}

// batch runs one lookup per symbol concurrently, consulting and filling
// the given TTL cache. Failed symbols are absent from the result.
func (s *PriceService) batch(symbols []string, cache map[string]cachedPrice, lookup func(string) (decimal.Decimal, error)) map[string]decimal.Decimal {
	results := make(map[string]decimal.Decimal, len(symbols))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(batchLimit)

	for _, symbol := range symbols {
		symbol := symbol

		s.mu.Lock()
		entry, ok := cache[symbol]
		s.mu.Unlock()
		if ok && s.now().Before(entry.expires) {
			// Workers for earlier symbols may already be writing.
			mu.Lock()
			results[symbol] = entry.price
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			price, err := lookup(symbol)
			if err != nil {
				return nil // absent symbol, not a batch failure
			}

			s.mu.Lock()
			cache[symbol] = cachedPrice{price: price, expires: s.now().Add(priceTTL)}
			s.mu.Unlock()

			mu.Lock()
			results[symbol] = price
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return results
}
