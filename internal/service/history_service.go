package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/ledger"
	"github.com/dverbeek/portfolio-tracker/internal/model"
	"github.com/dverbeek/portfolio-tracker/internal/repository"
)

// priceFetchLead is how many days before the calculation start prices
// are fetched, so weekends and holidays at the range edge still find a
// prior close to carry forward.
const priceFetchLead = 7

// HistoryService reconstructs past portfolio values by replaying the
// transaction history through a scratch ledger, one day at a time,
// against point-in-time close prices. Far-past results are memoized in
// the SQLite value cache; only dates near the present are recomputed.
type HistoryService struct {
	portfolio *PortfolioService
	prices    PriceSource
	splits    ledger.SplitSource
	valueRepo *repository.ValueRepository
	now       func() time.Time
}

// NewHistoryService creates a HistoryService. valueRepo may be nil,
// which disables memoization.
func NewHistoryService(portfolio *PortfolioService, prices PriceSource, splits ledger.SplitSource, valueRepo *repository.ValueRepository) *HistoryService {
	return &HistoryService{
		portfolio: portfolio,
		prices:    prices,
		splits:    splits,
		valueRepo: valueRepo,
		now:       time.Now,
	}
}

func (s *HistoryService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// priceIndex holds one symbol's close prices keyed by ISO date, with
// the keys pre-sorted for binary search.
type priceIndex struct {
	prices map[string]decimal.Decimal
	days   []string
}

// lookup returns the most recent price on or before the given ISO day.
func (idx priceIndex) lookup(day string) (decimal.Decimal, bool) {
	i := sort.SearchStrings(idx.days, day)
	if i < len(idx.days) && idx.days[i] == day {
		return idx.prices[day], true
	}
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return idx.prices[idx.days[i-1]], true
}

func buildPriceIndex(prices map[string]decimal.Decimal) priceIndex {
	days := make([]string, 0, len(prices))
	for day := range prices {
		days = append(days, day)
	}
	sort.Strings(days)
	return priceIndex{prices: prices, days: days}
}

// HistoricalValues returns one value point per day over the range.
// Defaults: start is the first transaction date, end is today. Cached
// far-past dates are served from SQLite; the remainder is recomputed by
// scratch-ledger replay and old-enough results are written back.
func (s *HistoryService) HistoricalValues(start, end time.Time) ([]model.ValuePoint, error) {
	led := s.portfolio.Ledger()
	txns := led.Transactions()
	if len(txns) == 0 {
		return nil, nil
	}

	first, _ := led.FirstTransactionDate()
	if start.IsZero() {
		start = first
	}
	if end.IsZero() {
		end = s.today()
	}

	cached := map[string]model.ValuePoint{}
	if s.valueRepo != nil {
		var err error
		cached, err = s.valueRepo.GetValues(start, end)
		if err != nil {
			return nil, err
		}
	}

	// When the cache already covers the start of the range, only the
	// recent (revisable) tail needs recomputing.
	calcStart := start
	if len(cached) > 0 {
		earliest := ""
		for day := range cached {
			if earliest == "" || day < earliest {
				earliest = day
			}
		}
		earliestDate, err := repository.ParseTime(earliest)
		if err != nil {
			return nil, err
		}
		if !earliestDate.After(start) {
			recompute := repository.CacheCutoff(s.now()).AddDate(0, 0, -priceFetchLead)
			if recompute.After(calcStart) {
				calcStart = recompute
			}
		}
	}

	calculated := s.replayRange(txns, calcStart, end)

	if s.valueRepo != nil {
		if err := s.valueRepo.SaveValues(calculated, s.now()); err != nil {
			return nil, err
		}
	}

	// Merge: cached points before the recomputed window, then the fresh
	// ones, ascending with no duplicate dates.
	results := make([]model.ValuePoint, 0, len(cached)+len(calculated))
	calcStartDay := calcStart.Format("2006-01-02")
	startDay := start.Format("2006-01-02")

	cachedDays := make([]string, 0, len(cached))
	for day := range cached {
		cachedDays = append(cachedDays, day)
	}
	sort.Strings(cachedDays)
	for _, day := range cachedDays {
		if day >= startDay && day < calcStartDay {
			results = append(results, cached[day])
		}
	}
	for _, p := range calculated {
		if p.Date.Format("2006-01-02") >= startDay {
			results = append(results, p)
		}
	}
	return results, nil
}

// replayRange rebuilds a scratch ledger and emits one value point per
// day from calcStart through end.
func (s *HistoryService) replayRange(txns []model.Transaction, calcStart, end time.Time) []model.ValuePoint {
	led := s.portfolio.Ledger()
	symbols := led.TradedSymbols()

	indexes := make(map[string]priceIndex, len(symbols))
	for _, symbol := range symbols {
		prices, err := s.prices.HistoricalPrices(symbol, calcStart.AddDate(0, 0, -priceFetchLead), end)
		if err != nil || len(prices) == 0 {
			continue // missing symbol, valued at zero until data appears
		}
		indexes[symbol] = buildPriceIndex(prices)
	}

	sorted := make([]model.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	scratch := ledger.New(s.splits, s.today())
	idx := 0
	for idx < len(sorted) && sorted[idx].Date.Before(calcStart) {
		scratch.Apply(sorted[idx])
		idx++
	}

	var points []model.ValuePoint
	for day := calcStart; !day.After(end); day = day.AddDate(0, 0, 1) {
		for idx < len(sorted) && !sorted[idx].Date.After(day) {
			scratch.Apply(sorted[idx])
			idx++
		}

		dayKey := day.Format("2006-01-02")
		investmentValue := decimal.Zero
		costBasis := decimal.Zero
		for _, symbol := range symbols {
			quantity := scratch.TotalQuantity(symbol)
			costBasis = costBasis.Add(scratch.CostBasis(symbol))
			if !quantity.IsPositive() {
				continue
			}
			if index, ok := indexes[symbol]; ok {
				if price, ok := index.lookup(dayKey); ok {
					investmentValue = investmentValue.Add(quantity.Mul(price))
				}
			}
		}

		cash := scratch.CashBalance(day)
		total := investmentValue.Add(cash)
		if total.IsPositive() || idx > 0 {
			points = append(points, model.ValuePoint{
				Date:            day,
				TotalValue:      total,
				InvestmentValue: investmentValue,
				CostBasis:       costBasis,
				CashValue:       cash,
			})
		}
	}
	return points
}

// DailyPNLHistory returns the last numDays of day-over-day changes in
// unrealized P&L. Measuring the change in unrealized P&L rather than in
// total value keeps new purchases and cash movements out of the series.
func (s *HistoryService) DailyPNLHistory(numDays int) ([]model.DailyPNLPoint, error) {
	led := s.portfolio.Ledger()
	txns := led.Transactions()
	if len(txns) == 0 {
		return nil, nil
	}

	end := s.today()
	start := end.AddDate(0, 0, -numDays)
	points := s.replayRange(txns, start, end)

	result := make([]model.DailyPNLPoint, 0, len(points))
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		prevPNL := prev.InvestmentValue.Sub(prev.CostBasis)
		currPNL := curr.InvestmentValue.Sub(curr.CostBasis)
		change := currPNL.Sub(prevPNL)

		pct := decimal.Zero
		if prev.TotalValue.IsPositive() {
			pct = change.Div(prev.TotalValue).Mul(hundred)
		}
		result = append(result, model.DailyPNLPoint{
			Date:            curr.Date,
			Value:           curr.TotalValue,
			DailyPNL:        change,
			DailyPNLPercent: pct,
		})
	}
	return result, nil
}

// InvestmentHistory returns the monthly invested-amount series derived
// from transactions alone; no market data is involved. Each month
// carries the end-of-month cost basis, the net change versus the prior
// month, and the month's BUY amounts per symbol.
func (s *HistoryService) InvestmentHistory(start, end time.Time) []model.MonthlyInvestment {
	led := s.portfolio.Ledger()
	txns := led.Transactions()
	if len(txns) == 0 {
		return nil
	}

	first, _ := led.FirstTransactionDate()
	if start.IsZero() {
		start = first
	}
	if end.IsZero() {
		end = s.today()
	}

	sorted := make([]model.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	// Collect BUY amounts per month.
	buysByMonth := make(map[string]map[string]decimal.Decimal)
	for _, txn := range sorted {
		if txn.Date.Before(start) || txn.Date.After(end) {
			continue
		}
		if txn.Action != model.ActionBuy {
			continue
		}
		month := txn.Date.Format("2006-01")
		if buysByMonth[month] == nil {
			buysByMonth[month] = make(map[string]decimal.Decimal)
		}
		buysByMonth[month][txn.Asset] = buysByMonth[month][txn.Asset].Add(txn.Amount.Decimal)
	}
	if len(buysByMonth) == 0 {
		return nil
	}

	months := make([]string, 0, len(buysByMonth))
	for m := range buysByMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	scratch := ledger.New(s.splits, s.today())
	idx := 0
	for idx < len(sorted) && sorted[idx].Date.Before(start) {
		scratch.Apply(sorted[idx])
		idx++
	}
	prevCostBasis := scratch.TotalCostBasis()

	results := make([]model.MonthlyInvestment, 0, len(months))
	for _, month := range months {
		monthEnd := endOfMonth(month)
		for idx < len(sorted) && !sorted[idx].Date.After(monthEnd) {
			scratch.Apply(sorted[idx])
			idx++
		}

		costBasis := scratch.TotalCostBasis()

		buys := make([]model.MonthlyBuy, 0, len(buysByMonth[month]))
		for symbol, amount := range buysByMonth[month] {
			if amount.IsPositive() {
				buys = append(buys, model.MonthlyBuy{Symbol: symbol, Amount: amount})
			}
		}
		sort.Slice(buys, func(i, j int) bool { return buys[i].Symbol < buys[j].Symbol })

		results = append(results, model.MonthlyInvestment{
			Month:         month,
			CostBasis:     costBasis,
			NetInvestment: costBasis.Sub(prevCostBasis),
			Buys:          buys,
		})
		prevCostBasis = costBasis
	}
	return results
}

func endOfMonth(month string) time.Time {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}
	}
	return t.AddDate(0, 1, 0).AddDate(0, 0, -1)
}
