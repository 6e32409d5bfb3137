package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// topMovers caps the per-asset change list attached to each intraday
// point.
const topMovers = 10

// IntradayService builds same-day and multi-day value curves from
// intraday price samples, forward-filling gaps from each symbol's last
// known price, initialized to its previous close.
type IntradayService struct {
	portfolio *PortfolioService
	prices    PriceSource
	now       func() time.Time
}

// NewIntradayService creates an IntradayService.
func NewIntradayService(portfolio *PortfolioService, prices PriceSource) *IntradayService {
	return &IntradayService{
		portfolio: portfolio,
		prices:    prices,
		now:       time.Now,
	}
}

// IntradayValues returns today's portfolio value at each intraday
// sample time, as HH:MM slots in the server's local day. The baseline
// (zero point for daily P&L) is the portfolio valued at previous
// closes. The final on-or-before-now slot of each actively trading
// symbol is refreshed with a live spot price so the curve's endpoint
// matches the holdings table.
func (s *IntradayService) IntradayValues(interval string) ([]model.IntradayPoint, error) {
	symbols, quantities := s.investmentPositions()
	if len(symbols) == 0 {
		return nil, nil
	}

	prevCloses := s.prices.PreviousClose(symbols)

	baseline := decimal.Zero
	for _, symbol := range symbols {
		if pc, ok := prevCloses[symbol]; ok {
			baseline = baseline.Add(quantities[symbol].Mul(pc))
		}
	}

	intraday := s.prices.IntradayPrices(symbols, interval, 1)

	// Collect every sample time plus synthetic day-boundary markers.
	slots := make(map[string]bool)
	for _, points := range intraday {
		for _, p := range points {
			slots[p.Timestamp.Local().Format("15:04")] = true
		}
	}

	nowTime := s.now().Local().Format("15:04")
	if baseline.IsPositive() {
		slots["00:00"] = true
		slots["09:30"] = true // market open
		slots["16:00"] = true // market close

		// After-hours fill so continuously traded assets keep drawing.
		step := intervalMinutes(interval)
		for hour := 16; hour < 24; hour++ {
			for minute := 0; minute < 60; minute += step {
				slot := fmt.Sprintf("%02d:%02d", hour, minute)
				if slot <= nowTime {
					slots[slot] = true
				}
			}
		}
		slots[nowTime] = true
	}
	if len(slots) == 0 {
		return nil, nil
	}

	sortedSlots := make([]string, 0, len(slots))
	for slot := range slots {
		sortedSlots = append(sortedSlots, slot)
	}
	sort.Strings(sortedSlots)

	// Index samples per symbol by slot.
	samples := make(map[string]map[string]decimal.Decimal, len(intraday))
	for symbol, points := range intraday {
		bySlot := make(map[string]decimal.Decimal, len(points))
		for _, p := range points {
			bySlot[p.Timestamp.Local().Format("15:04")] = p.Price
		}
		samples[symbol] = bySlot
	}

	spot := s.prices.Prices(symbols)

	lastPrices := make(map[string]decimal.Decimal)
	for _, symbol := range symbols {
		if pc, ok := prevCloses[symbol]; ok {
			lastPrices[symbol] = pc
		}
	}

	var results []model.IntradayPoint
	for i, slot := range sortedSlots {
		if slot > nowTime {
			continue
		}
		isFinalSlot := i == len(sortedSlots)-1 || sortedSlots[i+1] > nowTime

		total := decimal.Zero
		hasData := false
		for _, symbol := range symbols {
			price, ok := s.priceAtSlot(symbol, slot, isFinalSlot, samples, spot, lastPrices)
			if !ok {
				continue
			}
			total = total.Add(quantities[symbol].Mul(price))
			hasData = true
		}
		if !hasData || !total.IsPositive() {
			continue
		}

		dailyPNL := total.Sub(baseline)
		pct := decimal.Zero
		if baseline.IsPositive() {
			pct = dailyPNL.Div(baseline).Mul(hundred)
		}

		results = append(results, model.IntradayPoint{
			Time:            slot,
			Value:           total,
			BaselineValue:   baseline,
			DailyPNL:        dailyPNL,
			DailyPNLPercent: pct,
			AssetChanges:    assetChanges(symbols, quantities, lastPrices, prevCloses),
		})
	}
	return results, nil
}

// priceAtSlot resolves one symbol's price for a slot: the live spot on
// the final slot of a symbol trading today, else the slot's sample,
// else the carried-forward last known price.
func (s *IntradayService) priceAtSlot(
	symbol, slot string,
	isFinalSlot bool,
	samples map[string]map[string]decimal.Decimal,
	spot, lastPrices map[string]decimal.Decimal,
) (decimal.Decimal, bool) {
	tradingToday := len(samples[symbol]) > 0

	if isFinalSlot && tradingToday {
		if live, ok := spot[symbol]; ok {
			lastPrices[symbol] = live
			return live, true
		}
	}
	if sample, ok := samples[symbol][slot]; ok {
		lastPrices[symbol] = sample
		return sample, true
	}
	price, ok := lastPrices[symbol]
	return price, ok
}

// assetChanges builds the per-symbol movement list against previous
// close, largest absolute P&L first, capped at topMovers.
func assetChanges(symbols []string, quantities, lastPrices, prevCloses map[string]decimal.Decimal) []model.AssetChange {
	changes := make([]model.AssetChange, 0, len(symbols))
	for _, symbol := range symbols {
		current, okCurrent := lastPrices[symbol]
		prev, okPrev := prevCloses[symbol]
		if !okCurrent || !okPrev || !prev.IsPositive() {
			continue
		}
		diff := current.Sub(prev)
		changes = append(changes, model.AssetChange{
			Symbol:       symbol,
			PNL:          diff.Mul(quantities[symbol]),
			PNLPercent:   diff.Div(prev).Mul(hundred),
			PrevPrice:    prev,
			CurrentPrice: current,
		})
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].PNL.Abs().GreaterThan(changes[j].PNL.Abs())
	})
	if len(changes) > topMovers {
		changes = changes[:topMovers]
	}
	return changes
}

// MultidayIntradayValues returns the portfolio value at every intraday
// sample timestamp over the last `days` days. Gaps are forward-filled
// per symbol from the previous close; unlike the same-day curve there
// is no live-price override.
func (s *IntradayService) MultidayIntradayValues(interval string, days int) ([]model.MultidayPoint, error) {
	symbols, quantities := s.investmentPositions()
	if len(symbols) == 0 {
		return nil, nil
	}

	prevCloses := s.prices.PreviousClose(symbols)
	intraday := s.prices.IntradayPrices(symbols, interval, days)

	timestampSet := make(map[time.Time]bool)
	samples := make(map[string]map[time.Time]decimal.Decimal, len(intraday))
	for symbol, points := range intraday {
		byTime := make(map[time.Time]decimal.Decimal, len(points))
		for _, p := range points {
			timestampSet[p.Timestamp] = true
			byTime[p.Timestamp] = p.Price
		}
		samples[symbol] = byTime
	}
	if len(timestampSet) == 0 {
		return nil, nil
	}

	timestamps := make([]time.Time, 0, len(timestampSet))
	for ts := range timestampSet {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	lastPrices := make(map[string]decimal.Decimal)
	for _, symbol := range symbols {
		if pc, ok := prevCloses[symbol]; ok {
			lastPrices[symbol] = pc
		}
	}

	var results []model.MultidayPoint
	for _, ts := range timestamps {
		total := decimal.Zero
		hasData := false
		for _, symbol := range symbols {
			price, ok := samples[symbol][ts]
			if ok {
				lastPrices[symbol] = price
			} else {
				price, ok = lastPrices[symbol]
			}
			if !ok {
				continue
			}
			total = total.Add(quantities[symbol].Mul(price))
			hasData = true
		}
		if hasData && total.IsPositive() {
			results = append(results, model.MultidayPoint{Timestamp: ts, Value: total})
		}
	}
	return results, nil
}

// investmentPositions returns the open non-cash symbols and their
// quantities.
func (s *IntradayService) investmentPositions() ([]string, map[string]decimal.Decimal) {
	holdings := s.portfolio.Holdings(false)

	var symbols []string
	quantities := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		if h.Symbol == CashSymbol {
			continue
		}
		symbols = append(symbols, h.Symbol)
		quantities[h.Symbol] = h.Quantity
	}
	return symbols, quantities
}

// intervalMinutes parses "5m" style intervals, defaulting to 5.
func intervalMinutes(interval string) int {
	if strings.HasSuffix(interval, "m") {
		if n, err := strconv.Atoi(strings.TrimSuffix(interval, "m")); err == nil && n > 0 {
			return n
		}
	}
	return 5
}
