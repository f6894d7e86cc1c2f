// Package payments provides the append-only payment ledger of an order:
// receipts from the customer and payments made to the supplier.
package payments

import (
	"time"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/orders"
)

// Side distinguishes customer receipts from supplier payments.
type Side string

const (
	// Receivable is money paid by the customer, settled against totalValue.
	Receivable Side = "receivable"
	// Payable is money paid to the supplier, settled against totalCostValue.
	Payable Side = "payable"
)

// ParseSide validates a raw side value.
func ParseSide(raw string) (Side, error) {
	switch Side(raw) {
	case Receivable, Payable:
		return Side(raw), nil
	default:
		return "", apperror.NewValidation("side must be receivable or payable").
			WithDetail("field", "side").
			WithDetail("value", raw)
	}
}

// Payment is one ledger entry. Entries are never updated or deleted.
type Payment struct {
	ID        id.ID       `db:"id" json:"id"`
	OrderID   id.ID       `db:"order_id" json:"orderId"`
	Side      Side        `db:"-" json:"side"`
	Amount    types.Money `db:"amount" json:"amount"`
	Date      time.Time   `db:"date" json:"date"`
	Method    string      `db:"method" json:"method,omitempty"`
	Notes     string      `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	CreatedBy string      `db:"created_by" json:"createdBy,omitempty"`
}

// Sum adds the amounts of payments.
func Sum(payments []Payment) types.Money {
	total := types.Zero()
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Balance is the outstanding amount: total minus everything paid.
// Negative results are overpayments and are reported as such.
func Balance(total types.Money, payments []Payment) types.Money {
	return Outstanding(total, Sum(payments))
}

// Outstanding is total minus an already summed paid amount.
func Outstanding(total, paid types.Money) types.Money {
	return total.Sub(paid)
}

// SettledTotal returns the order total a side is settled against.
func SettledTotal(o *orders.Order, side Side) types.Money {
	if side == Payable {
		return o.TotalCostValue
	}
	return o.TotalValue
}

// BalanceView is the settlement state of one side of an order.
type BalanceView struct {
	OrderID id.ID       `json:"orderId"`
	Side    Side        `json:"side"`
	Total   types.Money `json:"total"`
	Paid    types.Money `json:"paid"`
	Balance types.Money `json:"balance"`
}
