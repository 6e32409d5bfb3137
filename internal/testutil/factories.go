// Package testutil provides shared helpers for tests: an in-memory
// cache database, transaction builders and market-data fakes.
package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// Date parses an ISO date or fails the test.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", s, err)
	}
	return parsed
}

// Dec parses a decimal literal or fails the test.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Failed to parse decimal %q: %v", s, err)
	}
	return d
}

// TransactionBuilder provides a fluent interface for creating test
// transactions.
//
// Example usage:
//
//	txn := testutil.NewTransaction(t, "2024-01-01", "VOO", model.ActionBuy).
//	    WithQuantity("10").
//	    WithAvePrice("100").
//	    Build(t)
type TransactionBuilder struct {
	txn model.Transaction
}

// NewTransaction creates a TransactionBuilder for the given date, asset
// and action.
func NewTransaction(t *testing.T, date, asset string, act model.Action) *TransactionBuilder {
	t.Helper()
	return &TransactionBuilder{txn: model.Transaction{
		Date:   Date(t, date),
		Asset:  asset,
		Action: act,
	}}
}

// WithAmount sets the amount field.
func (b *TransactionBuilder) WithAmount(s string) *TransactionBuilder {
	b.txn.Amount = decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
	return b
}

// WithQuantity sets the quantity field.
func (b *TransactionBuilder) WithQuantity(s string) *TransactionBuilder {
	b.txn.Quantity = decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
	return b
}

// WithAvePrice sets the average price field.
func (b *TransactionBuilder) WithAvePrice(s string) *TransactionBuilder {
	b.txn.AvePrice = decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
	return b
}

// Build normalizes the transaction and fails the test if it is invalid.
func (b *TransactionBuilder) Build(t *testing.T) model.Transaction {
	t.Helper()
	txn := b.txn
	if err := txn.Normalize(); err != nil {
		t.Fatalf("Failed to build transaction: %v", err)
	}
	return txn
}

// Buy builds a normalized BUY transaction.
func Buy(t *testing.T, date, asset, qty, price string) model.Transaction {
	t.Helper()
	return NewTransaction(t, date, asset, model.ActionBuy).
		WithQuantity(qty).WithAvePrice(price).Build(t)
}

// Sell builds a normalized SELL transaction.
func Sell(t *testing.T, date, asset, qty, price string) model.Transaction {
	t.Helper()
	return NewTransaction(t, date, asset, model.ActionSell).
		WithQuantity(qty).WithAvePrice(price).Build(t)
}

// Cash builds a normalized CASH snapshot transaction.
func Cash(t *testing.T, date, amount string) model.Transaction {
	t.Helper()
	return NewTransaction(t, date, "CASH", model.ActionCash).
		WithAmount(amount).Build(t)
}
