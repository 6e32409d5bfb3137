package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuePoint is one day of reconstructed portfolio value.
type ValuePoint struct {
	Date            time.Time
	TotalValue      decimal.Decimal
	InvestmentValue decimal.Decimal
	CostBasis       decimal.Decimal
	CashValue       decimal.Decimal
}

// DailyPNLPoint is one day of the rolling daily P&L series. DailyPNL is
// the change in unrealized P&L versus the previous day, so new purchases
// and cash movements do not show up as gains.
type DailyPNLPoint struct {
	Date            time.Time
	Value           decimal.Decimal
	DailyPNL        decimal.Decimal
	DailyPNLPercent decimal.Decimal
}

// PricePoint is a single intraday price sample.
type PricePoint struct {
	Timestamp time.Time
	Price     decimal.Decimal
}

// AssetChange is one asset's contribution to an intraday point, measured
// against its previous close.
type AssetChange struct {
	Symbol       string
	PNL          decimal.Decimal
	PNLPercent   decimal.Decimal
	PrevPrice    decimal.Decimal
	CurrentPrice decimal.Decimal
}

// IntradayPoint is the whole-portfolio value at one intraday time slot,
// with the previous-close baseline as the zero point for daily P&L.
type IntradayPoint struct {
	Time            string // HH:MM
	Value           decimal.Decimal
	BaselineValue   decimal.Decimal
	DailyPNL        decimal.Decimal
	DailyPNLPercent decimal.Decimal
	AssetChanges    []AssetChange
}

// MultidayPoint is the portfolio value at one timestamp of the multi-day
// intraday series.
type MultidayPoint struct {
	Timestamp time.Time
	Value     decimal.Decimal
}

// MonthlyBuy is one asset's total BUY amount within a month.
type MonthlyBuy struct {
	Symbol string
	Amount decimal.Decimal
}

// MonthlyInvestment is one month of the invested-amount series, derived
// from transactions only (no market data involved).
type MonthlyInvestment struct {
	Month         string // YYYY-MM
	CostBasis     decimal.Decimal
	NetInvestment decimal.Decimal
	Buys          []MonthlyBuy
}
