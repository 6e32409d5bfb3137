package model

import "github.com/shopspring/decimal"

// Holding is the aggregate of all open lots for one asset, optionally
// enriched with market data. Price-dependent fields are nil pointers when
// the price lookup failed or was skipped; zero is never substituted.
type Holding struct {
	Symbol                   string
	Quantity                 decimal.Decimal
	CostBasis                decimal.Decimal
	AvgCost                  decimal.Decimal
	CurrentPrice             *decimal.Decimal
	MarketValue              *decimal.Decimal
	UnrealizedPNL            *decimal.Decimal
	PNLPercent               *decimal.Decimal
	PrevClose                *decimal.Decimal
	DailyChangePercent       *decimal.Decimal
	DailyChangeAmount        *decimal.Decimal
	HoldingDays              int
	AnnualizedReturn         *decimal.Decimal
	WeightedAnnualizedReturn *decimal.Decimal
}

// UpdateWithPrice fills in the market-dependent fields from a current
// price and an optional previous close.
//
// When the cost basis is zero (pure gift positions), P&L percent is
// defined as 100% if the position has any market value, otherwise 0%.
func (h *Holding) UpdateWithPrice(price decimal.Decimal, prevClose *decimal.Decimal) {
	h.CurrentPrice = &price

	marketValue := h.Quantity.Mul(price)
	h.MarketValue = &marketValue

	unrealized := marketValue.Sub(h.CostBasis)
	h.UnrealizedPNL = &unrealized

	var pnlPercent decimal.Decimal
	if h.CostBasis.IsPositive() {
		pnlPercent = unrealized.Div(h.CostBasis).Mul(hundred)
	} else if marketValue.IsPositive() {
		pnlPercent = hundred
	}
	h.PNLPercent = &pnlPercent

	if prevClose != nil && prevClose.IsPositive() {
		h.PrevClose = prevClose
		changePercent := price.Sub(*prevClose).Div(*prevClose).Mul(hundred)
		changeAmount := price.Sub(*prevClose).Mul(h.Quantity)
		h.DailyChangePercent = &changePercent
		h.DailyChangeAmount = &changeAmount
	}
}

// DividendSummary aggregates dividend payments received for one asset.
type DividendSummary struct {
	Symbol      string
	TotalAmount decimal.Decimal
	PaymentCount int
}

// SoldAsset aggregates all realized sales of one asset.
type SoldAsset struct {
	Symbol       string
	Quantity     decimal.Decimal
	CostBasis    decimal.Decimal
	AvgCost      decimal.Decimal
	Proceeds     decimal.Decimal
	AvgSellPrice decimal.Decimal
	PNL          decimal.Decimal
	PNLPercent   decimal.Decimal
}

// PortfolioSummary is one consistent snapshot of the whole portfolio for
// a single valuation request.
type PortfolioSummary struct {
	TotalCostBasis           decimal.Decimal // open investment positions only
	TotalMarketValue         decimal.Decimal // investments + cash
	InvestmentMarketValue    decimal.Decimal // investments only
	TotalUnrealizedPNL       decimal.Decimal
	TotalRealizedPNL         decimal.Decimal
	TotalPNL                 decimal.Decimal // realized + unrealized, dividends excluded
	TotalPNLPercent          decimal.Decimal // TotalPNL / AllTimeCostBasis
	TotalDividends           decimal.Decimal
	TotalFees                decimal.Decimal
	AllTimeCostBasis         decimal.Decimal // open cost basis + cost basis of everything sold
	WeightedAnnualizedReturn *decimal.Decimal
	Holdings                 []Holding
	DividendSummaries        []DividendSummary
}

var hundred = decimal.NewFromInt(100)
