package dto

import (
	"github.com/shopspring/decimal"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/domain/payments"
)

// PaymentRequest records a payment against one side of an order.
type PaymentRequest struct {
	Side   string          `json:"side" binding:"required,oneof=receivable payable"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date" binding:"required,datetime=2006-01-02,notfuture"`
	Method string          `json:"method" binding:"max=50"`
	Notes  string          `json:"notes" binding:"max=1000"`
}

// ToInput converts the request to a ledger entry.
func (r *PaymentRequest) ToInput(orderID id.ID) (payments.RecordInput, error) {
	side, err := payments.ParseSide(r.Side)
	if err != nil {
		return payments.RecordInput{}, err
	}
	date, err := ParseDate("date", r.Date)
	if err != nil {
		return payments.RecordInput{}, err
	}
	if !r.Amount.IsPositive() {
		return payments.RecordInput{}, apperror.NewValidation("amount must be greater than zero").
			WithDetail("field", "amount")
	}
	return payments.RecordInput{
		OrderID: orderID,
		Side:    side,
		Amount:  r.Amount,
		Date:    date,
		Method:  r.Method,
		Notes:   r.Notes,
	}, nil
}

// SideQuery selects a ledger side; receivable when absent.
type SideQuery struct {
	Side string `form:"side" binding:"omitempty,oneof=receivable payable"`
}

// ParsedSide returns the requested side.
func (q SideQuery) ParsedSide() payments.Side {
	if q.Side == "" {
		return payments.Receivable
	}
	return payments.Side(q.Side)
}

// PaymentListResponse is the ledger of one side.
type PaymentListResponse struct {
	OrderID string             `json:"orderId"`
	Side    payments.Side      `json:"side"`
	Items   []payments.Payment `json:"items"`
}
