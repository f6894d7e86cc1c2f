// Package reports provides read-only dashboard aggregates over orders.
// Figures are derived with the same arithmetic the order detail view uses.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/payments"
)

// OrderFigures is the raw per-order data reports are computed from.
type OrderFigures struct {
	OrderID        id.ID       `db:"id"`
	Number         string      `db:"number"`
	Date           time.Time   `db:"date"`
	CustomerID     id.ID       `db:"customer_id"`
	SupplierID     *id.ID      `db:"supplier_id"`
	TotalValue     types.Money `db:"total_value"`
	TotalCostValue types.Money `db:"total_cost_value"`
	PaidByCustomer types.Money `db:"amount_paid_by_customer"`
	PaidToSupplier types.Money `db:"amount_paid_to_supplier"`
}

// FiguresFilter selects orders for a report.
type FiguresFilter struct {
	CustomerID *id.ID
	SupplierID *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time

	// OpenOnly keeps orders with a nonzero balance on Side, or on either
	// side when Side is empty
	OpenOnly bool
	Side     payments.Side

	Limit  int
	Offset int
}

// BalanceTotals are summed open balances. Settled orders add zero.
type BalanceTotals struct {
	Receivable types.Money `db:"receivable"`
	Payable    types.Money `db:"payable"`
}

// --- Outstanding balances ---

// OutstandingFilter defines filter for the outstanding balances report.
type OutstandingFilter struct {
	CustomerID *id.ID
	SupplierID *id.ID

	// Side limits the report to one side; empty means both
	Side payments.Side

	// IncludeSettled keeps orders whose balances are zero
	IncludeSettled bool

	// Pagination
	Limit  int
	Offset int
}

// OutstandingRow is one order with its open balances.
type OutstandingRow struct {
	OrderID    id.ID       `json:"orderId"`
	Number     string      `json:"number"`
	Date       time.Time   `json:"date"`
	CustomerID id.ID       `json:"customerId"`
	Receivable types.Money `json:"receivable"`
	Payable    types.Money `json:"payable"`
}

// OutstandingReport lists open balances and their sums.
type OutstandingReport struct {
	Items           []OutstandingRow `json:"items"`
	TotalReceivable types.Money      `json:"totalReceivable"`
	TotalPayable    types.Money      `json:"totalPayable"`
}

// --- Profit by period ---

// Granularity is the bucket size of the profit report.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity validates a raw value; empty means month.
func ParseGranularity(raw string) (Granularity, error) {
	switch g := Granularity(raw); g {
	case "":
		return GranularityMonth, nil
	case GranularityDay, GranularityMonth, GranularityYear:
		return g, nil
	default:
		return "", apperror.NewValidation("granularity must be day, month or year").
			WithDetail("field", "granularity")
	}
}

// PeriodStart truncates t to the start of its bucket, in UTC.
func (g Granularity) PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// Label formats a period start for display.
func (g Granularity) Label(start time.Time) string {
	switch g {
	case GranularityDay:
		return start.Format("2006-01-02")
	case GranularityYear:
		return start.Format("2006")
	default:
		return start.Format("2006-01")
	}
}

// ProfitFilter defines filter for the profit report.
type ProfitFilter struct {
	From        time.Time
	To          time.Time
	Granularity Granularity
}

// ProfitRow aggregates one period.
type ProfitRow struct {
	Period         string          `json:"period"`
	PeriodStart    time.Time       `json:"periodStart"`
	Orders         int             `json:"orders"`
	TotalValue     types.Money     `json:"totalValue"`
	TotalCostValue types.Money     `json:"totalCostValue"`
	Profit         types.Money     `json:"profit"`
	ProfitPercent  decimal.Decimal `json:"profitPercent"`
}

// ProfitReport is profit grouped by period.
type ProfitReport struct {
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Granularity Granularity `json:"granularity"`
	Items       []ProfitRow `json:"items"`
	Total       ProfitRow   `json:"total"`
}
