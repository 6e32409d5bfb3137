package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/ledger"
	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// PriceSource is the market data contract consumed by the valuation
// and reconstruction services. PriceService implements it; tests use a
// fake. Batch methods omit symbols whose lookup failed.
type PriceSource interface {
	Prices(symbols []string) map[string]decimal.Decimal
	PreviousClose(symbols []string) map[string]decimal.Decimal
	HistoricalPrices(symbol string, start, end time.Time) (map[string]decimal.Decimal, error)
	IntradayPrices(symbols []string, interval string, days int) map[string][]model.PricePoint
}

// CashSymbol is the synthetic holding symbol for the cash balance.
const CashSymbol = "CASH"

var (
	one         = decimal.NewFromInt(1)
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// PortfolioService owns the live ledger and computes holdings and the
// portfolio summary. The ledger is replaced wholesale on reload
// (construct then swap) so concurrent readers never observe a
// partially-built state.
type PortfolioService struct {
	prices PriceSource
	splits ledger.SplitSource
	now    func() time.Time

	mu     sync.RWMutex
	ledger *ledger.Ledger
}

// NewPortfolioService creates a PortfolioService with an empty ledger.
func NewPortfolioService(prices PriceSource, splits ledger.SplitSource) *PortfolioService {
	s := &PortfolioService{
		prices: prices,
		splits: splits,
		now:    time.Now,
	}
	s.ledger = ledger.New(splits, s.today())
	return s
}

func (s *PortfolioService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// Reload replays the given transactions into a fresh ledger and swaps
// it in atomically.
func (s *PortfolioService) Reload(txns []model.Transaction) {
	rebuilt := ledger.Replay(txns, s.splits, s.today())

	s.mu.Lock()
	s.ledger = rebuilt
	s.mu.Unlock()
}

// Ledger returns the current live ledger. The returned ledger is an
// immutable snapshot; callers may read it for the duration of a request
// without further locking.
func (s *PortfolioService) Ledger() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}

// Holdings returns the current holdings sorted by symbol. With
// withPrices set, each holding is enriched with current and
// previous-close prices and the two annualized-return variants, and a
// synthetic CASH holding is appended when the cash balance is positive.
// Symbols whose price lookup failed keep nil market fields.
func (s *PortfolioService) Holdings(withPrices bool) []model.Holding {
	led := s.Ledger()

	symbols := led.Symbols()
	holdings := make([]model.Holding, 0, len(symbols)+1)
	for _, symbol := range symbols {
		quantity := led.TotalQuantity(symbol)
		costBasis := led.CostBasis(symbol)
		avgCost := decimal.Zero
		if quantity.IsPositive() {
			avgCost = costBasis.Div(quantity)
		}
		holdings = append(holdings, model.Holding{
			Symbol:    symbol,
			Quantity:  quantity,
			CostBasis: costBasis,
			AvgCost:   avgCost,
		})
	}

	if withPrices && len(symbols) > 0 {
		prices := s.prices.Prices(symbols)
		prevCloses := s.prices.PreviousClose(symbols)

		for i := range holdings {
			price, ok := prices[holdings[i].Symbol]
			if !ok {
				continue
			}
			var prev *decimal.Decimal
			if pc, ok := prevCloses[holdings[i].Symbol]; ok {
				prev = &pc
			}
			holdings[i].UpdateWithPrice(price, prev)
		}
	}

	for i := range holdings {
		s.annualize(led, &holdings[i])
	}

	if cash := led.CashBalance(s.today()); cash.IsPositive() {
		zero := decimal.Zero
		holdings = append(holdings, model.Holding{
			Symbol:        CashSymbol,
			Quantity:      one,
			CostBasis:     cash,
			AvgCost:       cash,
			CurrentPrice:  &cash,
			MarketValue:   &cash,
			UnrealizedPNL: &zero,
			PNLPercent:    &zero,
		})
	}

	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings
}

// annualize fills HoldingDays and the two annualized-return fields.
// Both use a minimum one-year denominator so brand-new positions do not
// extrapolate into absurd percentages.
func (s *PortfolioService) annualize(led *ledger.Ledger, h *model.Holding) {
	h.HoldingDays = led.HoldingDays(h.Symbol)

	if h.HoldingDays > 0 && h.PNLPercent != nil {
		years := decimal.NewFromInt(int64(h.HoldingDays)).Div(daysPerYear)
		if years.LessThan(one) {
			years = one
		}
		simple := h.PNLPercent.Div(years)
		h.AnnualizedReturn = &simple
	}

	if h.CurrentPrice != nil {
		if weighted, ok := weightedCAGR(led.Lots(h.Symbol), *h.CurrentPrice, s.today()); ok {
			h.WeightedAnnualizedReturn = &weighted
		}
	}
}

// weightedCAGR computes the cost-basis-weighted per-lot CAGR for a
// symbol at the given current price. Zero-cost lots (gifts, fixes)
// carry no weight and are skipped.
func weightedCAGR(lots []ledger.Lot, currentPrice decimal.Decimal, today time.Time) (decimal.Decimal, bool) {
	weightedSum := decimal.Zero
	totalWeight := decimal.Zero

	for _, lot := range lots {
		cost := lot.TotalCost()
		if !lot.Quantity.IsPositive() || !cost.IsPositive() {
			continue
		}

		holdingDays := int(today.Sub(lot.PurchaseDate).Hours() / 24)
		if holdingDays < 1 {
			holdingDays = 1
		}
		years := decimal.NewFromInt(int64(holdingDays)).Div(daysPerYear)
		if years.LessThan(one) {
			years = one
		}

		growth := lot.Quantity.Mul(currentPrice).Div(cost)
		if !growth.IsPositive() {
			continue
		}

		// The fractional root has no exact decimal form; float64 is the
		// accepted precision for this one computation.
		growthF, _ := growth.Float64()
		yearsF, _ := years.Float64()
		cagr := decimal.NewFromFloat(math.Pow(growthF, 1/yearsF) - 1).Mul(hundred)

		weightedSum = weightedSum.Add(cost.Mul(cagr))
		totalWeight = totalWeight.Add(cost)
	}

	if !totalWeight.IsPositive() {
		return decimal.Decimal{}, false
	}
	return weightedSum.Div(totalWeight), true
}

// Summary returns the whole-portfolio summary: investment and cash
// values separated, realized and unrealized P&L combined, and overall
// return measured against the all-time cost basis (open positions plus
// everything ever sold). Dividends and fees are reported separately and
// do not enter TotalPNL.
func (s *PortfolioService) Summary(withPrices bool) model.PortfolioSummary {
	led := s.Ledger()
	holdings := s.Holdings(withPrices)

	investmentCostBasis := decimal.Zero
	investmentMarketValue := decimal.Zero
	totalUnrealized := decimal.Zero
	cashValue := decimal.Zero

	for _, h := range holdings {
		if h.Symbol == CashSymbol {
			if h.MarketValue != nil {
				cashValue = *h.MarketValue
			}
			continue
		}
		investmentCostBasis = investmentCostBasis.Add(h.CostBasis)
		if h.MarketValue != nil {
			investmentMarketValue = investmentMarketValue.Add(*h.MarketValue)
		}
		if h.UnrealizedPNL != nil {
			totalUnrealized = totalUnrealized.Add(*h.UnrealizedPNL)
		}
	}

	totalRealized, soldCostBasis := led.RealizedTotals()
	allTimeCostBasis := investmentCostBasis.Add(soldCostBasis)
	totalPNL := totalRealized.Add(totalUnrealized)

	totalPNLPercent := decimal.Zero
	if allTimeCostBasis.IsPositive() {
		totalPNLPercent = totalPNL.Div(allTimeCostBasis).Mul(hundred)
	}

	summary := model.PortfolioSummary{
		TotalCostBasis:        investmentCostBasis,
		TotalMarketValue:      investmentMarketValue.Add(cashValue),
		InvestmentMarketValue: investmentMarketValue,
		TotalUnrealizedPNL:    totalUnrealized,
		TotalRealizedPNL:      totalRealized,
		TotalPNL:              totalPNL,
		TotalPNLPercent:       totalPNLPercent,
		TotalDividends:        led.TotalDividends(),
		TotalFees:             led.TotalFees(),
		AllTimeCostBasis:      allTimeCostBasis,
		Holdings:              holdings,
		DividendSummaries:     led.DividendSummaries(),
	}

	if withPrices {
		if weighted, ok := s.portfolioCAGR(led, holdings); ok {
			summary.WeightedAnnualizedReturn = &weighted
		}
	}
	return summary
}

// portfolioCAGR computes the cost-basis-weighted CAGR across every lot
// of every priced holding.
func (s *PortfolioService) portfolioCAGR(led *ledger.Ledger, holdings []model.Holding) (decimal.Decimal, bool) {
	weightedSum := decimal.Zero
	totalWeight := decimal.Zero
	today := s.today()

	for _, h := range holdings {
		if h.Symbol == CashSymbol || h.CurrentPrice == nil {
			continue
		}
		for _, lot := range led.Lots(h.Symbol) {
			cost := lot.TotalCost()
			if !lot.Quantity.IsPositive() || !cost.IsPositive() {
				continue
			}
			if cagr, ok := weightedCAGR([]ledger.Lot{lot}, *h.CurrentPrice, today); ok {
				weightedSum = weightedSum.Add(cost.Mul(cagr))
				totalWeight = totalWeight.Add(cost)
			}
		}
	}

	if !totalWeight.IsPositive() {
		return decimal.Decimal{}, false
	}
	return weightedSum.Div(totalWeight), true
}

// SoldAssets returns realized-sale aggregates per symbol.
func (s *PortfolioService) SoldAssets() []model.SoldAsset {
	return s.Ledger().SoldAssets()
}

// DividendSummaries returns per-symbol dividend aggregates.
func (s *PortfolioService) DividendSummaries() []model.DividendSummary {
	return s.Ledger().DividendSummaries()
}

// CashBalance returns the cash balance as of the given date, or today
// when asOf is zero.
func (s *PortfolioService) CashBalance(asOf time.Time) decimal.Decimal {
	if asOf.IsZero() {
		asOf = s.today()
	}
	return s.Ledger().CashBalance(asOf)
}
