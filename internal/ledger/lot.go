package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a quantity of an asset acquired at one cost per unit. Lots live
// in per-asset FIFO queues; quantity only shrinks after creation.
type Lot struct {
	Quantity     decimal.Decimal
	CostPerUnit  decimal.Decimal
	PurchaseDate time.Time
}

// TotalCost returns quantity * cost per unit.
func (l Lot) TotalCost() decimal.Decimal {
	return l.Quantity.Mul(l.CostPerUnit)
}

// RealizedSale records one SELL after FIFO depletion finished. It is
// immutable once recorded.
type RealizedSale struct {
	ID        string
	Date      time.Time
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal
	Proceeds  decimal.Decimal
}

// PNL returns proceeds minus the cost basis removed by the sale.
func (s RealizedSale) PNL() decimal.Decimal {
	return s.Proceeds.Sub(s.CostBasis)
}
