// Package ledger implements the FIFO lot-accounting core. A Ledger is
// built by replaying date-sorted transactions; it tracks per-asset lot
// queues, dividend and fee totals, dated cash snapshots and realized
// sales. All stored quantities and prices are split-adjusted to the
// ledger's reference date at transaction time.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// SplitSource supplies the cumulative split adjustment factor for a
// symbol between a transaction date and a target date. A nil SplitSource
// disables adjustment (factor 1 everywhere).
type SplitSource interface {
	AdjustmentFactor(symbol string, txnDate, targetDate time.Time) decimal.Decimal
}

// Ledger holds the full accounting state for one portfolio at one
// reference date. It is not safe for concurrent mutation; build a fresh
// instance per replay and share it read-only.
type Ledger struct {
	splits SplitSource
	asOf   time.Time

	lots          map[string][]Lot
	dividends     map[string][]decimal.Decimal
	totalFees     decimal.Decimal
	cashSnapshots map[string]decimal.Decimal // ISO date -> absolute balance
	sales         map[string][]RealizedSale
	transactions  []model.Transaction
}

// New returns an empty ledger whose quantities will be expressed in
// asOf-equivalent share counts.
func New(splits SplitSource, asOf time.Time) *Ledger {
	return &Ledger{
		splits:        splits,
		asOf:          asOf,
		lots:          make(map[string][]Lot),
		dividends:     make(map[string][]decimal.Decimal),
		cashSnapshots: make(map[string]decimal.Decimal),
		sales:         make(map[string][]RealizedSale),
	}
}

// Replay builds a ledger by applying every transaction in ascending date
// order. Ties keep their input order, which makes replay deterministic
// for a given transaction slice.
func Replay(txns []model.Transaction, splits SplitSource, asOf time.Time) *Ledger {
	sorted := make([]model.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	l := New(splits, asOf)
	for _, txn := range sorted {
		l.Apply(txn)
	}
	return l
}

// AsOf returns the ledger's reference date.
func (l *Ledger) AsOf() time.Time { return l.asOf }

// Apply mutates the ledger with one transaction. The caller must have
// validated the transaction (Normalize) and must apply transactions in
// non-decreasing date order. Depleting more than is held stops at zero;
// the ledger never goes negative and never raises business errors.
func (l *Ledger) Apply(txn model.Transaction) {
	symbol := txn.Asset
	factor := l.adjustmentFactor(txn)

	switch txn.Action {
	case model.ActionBuy:
		l.lots[symbol] = append(l.lots[symbol], Lot{
			Quantity:     txn.Quantity.Decimal.Mul(factor),
			CostPerUnit:  adjustPrice(txn.AvePrice.Decimal, factor),
			PurchaseDate: txn.Date,
		})

	case model.ActionSell:
		adjustedQty := txn.Quantity.Decimal.Mul(factor)
		adjustedPrice := adjustPrice(txn.AvePrice.Decimal, factor)
		proceeds := adjustedQty.Mul(adjustedPrice)

		qtySold, costBasis := l.deplete(symbol, adjustedQty)
		if qtySold.IsPositive() {
			l.sales[symbol] = append(l.sales[symbol], RealizedSale{
				ID:        uuid.New().String(),
				Date:      txn.Date,
				Quantity:  qtySold,
				CostBasis: costBasis,
				Proceeds:  proceeds,
			})
		}

	case model.ActionDividend:
		l.dividends[symbol] = append(l.dividends[symbol], txn.Amount.Decimal)

	case model.ActionGift:
		l.lots[symbol] = append(l.lots[symbol], Lot{
			Quantity:     txn.Quantity.Decimal.Mul(factor),
			CostPerUnit:  decimal.Zero,
			PurchaseDate: txn.Date,
		})

	case model.ActionFee:
		l.totalFees = l.totalFees.Add(txn.Amount.Decimal)

	case model.ActionGas:
		l.deplete(symbol, txn.Quantity.Decimal.Mul(factor))

	case model.ActionCash:
		// Last write wins per date.
		l.cashSnapshots[txn.Date.Format("2006-01-02")] = txn.Amount.Decimal

	case model.ActionFix:
		target := txn.Quantity.Decimal.Mul(factor)
		current := l.TotalQuantity(symbol)
		switch {
		case target.GreaterThan(current):
			l.lots[symbol] = append(l.lots[symbol], Lot{
				Quantity:     target.Sub(current),
				CostPerUnit:  decimal.Zero,
				PurchaseDate: txn.Date,
			})
		case target.LessThan(current):
			l.deplete(symbol, current.Sub(target))
		}
	}

	l.transactions = append(l.transactions, txn)
}

func (l *Ledger) adjustmentFactor(txn model.Transaction) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if l.splits == nil {
		return one
	}
	switch txn.Action {
	case model.ActionBuy, model.ActionSell, model.ActionGift, model.ActionGas, model.ActionFix:
		return l.splits.AdjustmentFactor(txn.Asset, txn.Date, l.asOf)
	default:
		return one
	}
}

// adjustPrice divides by the split factor; a zero factor leaves the
// price unchanged rather than dividing by zero.
func adjustPrice(price, factor decimal.Decimal) decimal.Decimal {
	if factor.IsZero() {
		return price
	}
	return price.Div(factor)
}

// deplete removes up to qty from the symbol's FIFO queue, oldest lot
// first, and returns the quantity and cost basis actually removed.
// Removal stops when the queue is empty.
func (l *Ledger) deplete(symbol string, qty decimal.Decimal) (removed, costBasis decimal.Decimal) {
	remaining := qty
	queue := l.lots[symbol]

	for remaining.IsPositive() && len(queue) > 0 {
		lot := &queue[0]
		if lot.Quantity.LessThanOrEqual(remaining) {
			removed = removed.Add(lot.Quantity)
			costBasis = costBasis.Add(lot.TotalCost())
			remaining = remaining.Sub(lot.Quantity)
			queue = queue[1:]
		} else {
			removed = removed.Add(remaining)
			costBasis = costBasis.Add(remaining.Mul(lot.CostPerUnit))
			lot.Quantity = lot.Quantity.Sub(remaining)
			remaining = decimal.Zero
		}
	}

	l.lots[symbol] = queue
	return removed, costBasis
}

// Symbols returns every symbol with positive open quantity, sorted.
func (l *Ledger) Symbols() []string {
	symbols := make([]string, 0, len(l.lots))
	for symbol := range l.lots {
		if l.TotalQuantity(symbol).IsPositive() {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// Lots returns a copy of the symbol's open lot queue in FIFO order.
func (l *Ledger) Lots(symbol string) []Lot {
	lots := make([]Lot, len(l.lots[symbol]))
	copy(lots, l.lots[symbol])
	return lots
}

// TotalQuantity sums the open lot quantities for a symbol.
func (l *Ledger) TotalQuantity(symbol string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots[symbol] {
		total = total.Add(lot.Quantity)
	}
	return total
}

// CostBasis sums the open lot costs for a symbol.
func (l *Ledger) CostBasis(symbol string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots[symbol] {
		total = total.Add(lot.TotalCost())
	}
	return total
}

// TotalCostBasis sums the open lot costs across every symbol.
func (l *Ledger) TotalCostBasis() decimal.Decimal {
	total := decimal.Zero
	for symbol := range l.lots {
		total = total.Add(l.CostBasis(symbol))
	}
	return total
}

// CashBalance returns the snapshot with the latest date on or before
// asOf, or zero when no snapshot qualifies.
func (l *Ledger) CashBalance(asOf time.Time) decimal.Decimal {
	cutoff := asOf.Format("2006-01-02")
	latest := ""
	for day := range l.cashSnapshots {
		if day <= cutoff && day > latest {
			latest = day
		}
	}
	if latest == "" {
		return decimal.Zero
	}
	return l.cashSnapshots[latest]
}

// DividendSummaries aggregates dividend payments per symbol, sorted by
// symbol.
func (l *Ledger) DividendSummaries() []model.DividendSummary {
	summaries := make([]model.DividendSummary, 0, len(l.dividends))
	for symbol, amounts := range l.dividends {
		if len(amounts) == 0 {
			continue
		}
		total := decimal.Zero
		for _, a := range amounts {
			total = total.Add(a)
		}
		summaries = append(summaries, model.DividendSummary{
			Symbol:       symbol,
			TotalAmount:  total,
			PaymentCount: len(amounts),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Symbol < summaries[j].Symbol })
	return summaries
}

// TotalDividends sums dividends across all symbols.
func (l *Ledger) TotalDividends() decimal.Decimal {
	total := decimal.Zero
	for _, amounts := range l.dividends {
		for _, a := range amounts {
			total = total.Add(a)
		}
	}
	return total
}

// TotalFees returns the accumulated FEE amounts.
func (l *Ledger) TotalFees() decimal.Decimal {
	return l.totalFees
}

// Sales returns the symbol's realized sales in application order.
func (l *Ledger) Sales(symbol string) []RealizedSale {
	sales := make([]RealizedSale, len(l.sales[symbol]))
	copy(sales, l.sales[symbol])
	return sales
}

// RealizedTotals returns the total realized P&L and the total cost basis
// removed by sales, across all symbols.
func (l *Ledger) RealizedTotals() (pnl, soldCostBasis decimal.Decimal) {
	for _, sales := range l.sales {
		for _, s := range sales {
			pnl = pnl.Add(s.PNL())
			soldCostBasis = soldCostBasis.Add(s.CostBasis)
		}
	}
	return pnl, soldCostBasis
}

// SoldAssets aggregates realized sales per symbol, sorted by symbol.
func (l *Ledger) SoldAssets() []model.SoldAsset {
	assets := make([]model.SoldAsset, 0, len(l.sales))
	for symbol, sales := range l.sales {
		if len(sales) == 0 {
			continue
		}
		quantity := decimal.Zero
		costBasis := decimal.Zero
		proceeds := decimal.Zero
		for _, s := range sales {
			quantity = quantity.Add(s.Quantity)
			costBasis = costBasis.Add(s.CostBasis)
			proceeds = proceeds.Add(s.Proceeds)
		}
		if !quantity.IsPositive() {
			continue
		}

		pnl := proceeds.Sub(costBasis)
		pnlPercent := decimal.Zero
		if costBasis.IsPositive() {
			pnlPercent = pnl.Div(costBasis).Mul(decimal.NewFromInt(100))
		}
		assets = append(assets, model.SoldAsset{
			Symbol:       symbol,
			Quantity:     quantity,
			CostBasis:    costBasis,
			AvgCost:      costBasis.Div(quantity),
			Proceeds:     proceeds,
			AvgSellPrice: proceeds.Div(quantity),
			PNL:          pnl,
			PNLPercent:   pnlPercent,
		})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })
	return assets
}

// HoldingDays counts days the symbol's position was open, using the raw
// transaction quantities. Gaps between a close and a reopen are not
// counted. A position still open today counts up to the reference date,
// with a minimum of one day.
func (l *Ledger) HoldingDays(symbol string) int {
	var txns []model.Transaction
	for _, t := range l.transactions {
		if t.Asset == symbol {
			txns = append(txns, t)
		}
	}
	if len(txns) == 0 {
		return 0
	}
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

	currentQty := decimal.Zero
	var periodStart time.Time
	open := false
	totalDays := 0
	anyPeriod := false

	for _, t := range txns {
		prevQty := currentQty
		switch t.Action {
		case model.ActionBuy, model.ActionGift:
			currentQty = currentQty.Add(t.Quantity.Decimal)
		case model.ActionSell, model.ActionGas:
			currentQty = currentQty.Sub(t.Quantity.Decimal)
		}

		if !prevQty.IsPositive() && currentQty.IsPositive() {
			periodStart = t.Date
			open = true
		}
		if prevQty.IsPositive() && !currentQty.IsPositive() && open {
			totalDays += daysBetween(periodStart, t.Date)
			open = false
			anyPeriod = true
		}
	}

	if currentQty.IsPositive() && open {
		totalDays += daysBetween(periodStart, l.asOf)
		anyPeriod = true
	}

	if !anyPeriod {
		return 0
	}
	if totalDays < 1 {
		return 1
	}
	return totalDays
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// Transactions returns the applied transactions in application order.
func (l *Ledger) Transactions() []model.Transaction {
	txns := make([]model.Transaction, len(l.transactions))
	copy(txns, l.transactions)
	return txns
}

// TradedSymbols returns every symbol touched by a quantity-affecting
// action, whether or not the position is still open.
func (l *Ledger) TradedSymbols() []string {
	seen := make(map[string]bool)
	for _, t := range l.transactions {
		switch t.Action {
		case model.ActionBuy, model.ActionSell, model.ActionGift, model.ActionGas:
			seen[t.Asset] = true
		}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// FirstTransactionDate returns the earliest applied transaction date and
// false when the ledger is empty.
func (l *Ledger) FirstTransactionDate() (time.Time, bool) {
	if len(l.transactions) == 0 {
		return time.Time{}, false
	}
	first := l.transactions[0].Date
	for _, t := range l.transactions[1:] {
		if t.Date.Before(first) {
			first = t.Date
		}
	}
	return first, true
}
