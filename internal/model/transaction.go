package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action identifies what a transaction does to the portfolio.
// The set is closed; the ledger switches over every value.
type Action string

const (
	ActionBuy      Action = "BUY"
	ActionSell     Action = "SELL"
	ActionDividend Action = "DIV"
	ActionGift     Action = "GIFT"
	ActionFee      Action = "FEE"
	ActionGas      Action = "GAS"  // outgoing in-kind fee, depletes lots without proceeds
	ActionCash     Action = "CASH" // absolute cash balance snapshot
	ActionFix      Action = "FIX"  // reconcile total quantity to a known value
)

// Actions lists every valid action value, in declaration order.
var Actions = []Action{
	ActionBuy, ActionSell, ActionDividend, ActionGift,
	ActionFee, ActionGas, ActionCash, ActionFix,
}

// ParseAction converts a string to an Action, case-insensitively.
// Returns an error naming the valid actions if the value is unknown.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, valid := range Actions {
		if a == valid {
			return a, nil
		}
	}
	names := make([]string, len(Actions))
	for i, v := range Actions {
		names[i] = string(v)
	}
	return "", fmt.Errorf("invalid action %q, valid actions: %s", s, strings.Join(names, ", "))
}

// Transaction is a single immutable portfolio event parsed from a
// transaction file. Amount, Quantity and AvePrice are optional in the
// input; Normalize derives the missing one for BUY/SELL and enforces
// the per-action required fields before the ledger ever sees the record.
type Transaction struct {
	Date     time.Time
	Asset    string
	Action   Action
	Amount   decimal.NullDecimal
	Quantity decimal.NullDecimal
	AvePrice decimal.NullDecimal
	Source   string
	Comment  string
}

// Normalize validates the transaction and fills in derived fields.
//
// Rules per action:
//   - BUY/SELL: at least two of amount, quantity, ave_price must be set;
//     the third is derived (amount = quantity * ave_price).
//   - DIV, FEE, CASH: amount is required.
//   - GIFT, GAS, FIX: quantity is required.
//
// The asset symbol is upper-cased and trimmed. A transaction that fails
// validation must not be applied to a ledger.
func (t *Transaction) Normalize() error {
	t.Asset = strings.ToUpper(strings.TrimSpace(t.Asset))
	if t.Asset == "" {
		return fmt.Errorf("asset symbol is required")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("date is required")
	}

	switch t.Action {
	case ActionBuy, ActionSell:
		provided := 0
		for _, v := range []decimal.NullDecimal{t.Amount, t.Quantity, t.AvePrice} {
			if v.Valid {
				provided++
			}
		}
		if provided < 2 {
			return fmt.Errorf("%s requires at least 2 of: amount, quantity, ave_price", t.Action)
		}
		if provided == 2 {
			switch {
			case !t.Amount.Valid:
				t.Amount = nullDecimal(t.Quantity.Decimal.Mul(t.AvePrice.Decimal))
			case !t.Quantity.Valid:
				if t.AvePrice.Decimal.IsZero() {
					return fmt.Errorf("%s cannot derive quantity from a zero ave_price", t.Action)
				}
				t.Quantity = nullDecimal(t.Amount.Decimal.Div(t.AvePrice.Decimal))
			case !t.AvePrice.Valid:
				if t.Quantity.Decimal.IsZero() {
					return fmt.Errorf("%s cannot derive ave_price from a zero quantity", t.Action)
				}
				t.AvePrice = nullDecimal(t.Amount.Decimal.Div(t.Quantity.Decimal))
			}
		}
	case ActionDividend:
		if !t.Amount.Valid {
			return fmt.Errorf("DIV action requires amount")
		}
	case ActionGift:
		if !t.Quantity.Valid {
			return fmt.Errorf("GIFT action requires quantity")
		}
	case ActionFee:
		if !t.Amount.Valid {
			return fmt.Errorf("FEE action requires amount")
		}
	case ActionGas:
		if !t.Quantity.Valid {
			return fmt.Errorf("GAS action requires quantity")
		}
	case ActionCash:
		if !t.Amount.Valid {
			return fmt.Errorf("CASH action requires amount (cash balance)")
		}
	case ActionFix:
		if !t.Quantity.Valid {
			return fmt.Errorf("FIX action requires quantity (the correct total quantity)")
		}
	default:
		return fmt.Errorf("unknown action %q", t.Action)
	}

	return nil
}

func nullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
