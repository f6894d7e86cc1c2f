// Package orders provides the purchase order aggregate: header, line items
// and the derived weight, freight and totals.
package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/entity"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/freight"
)

// AttachmentEntityType is the entity type under which the attachment
// subsystem files documents for an order.
const AttachmentEntityType = "order"

// Order is a purchase order placed by a customer and fulfilled by a supplier.
type Order struct {
	entity.Document

	Label      string `db:"label" json:"label"`
	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	EstimatedProductionDate *time.Time `db:"estimated_production_date" json:"estimatedProductionDate,omitempty"`
	EstimatedDeliveryDate   *time.Time `db:"estimated_delivery_date" json:"estimatedDeliveryDate,omitempty"`

	// Derived on every save
	GrossWeightKg  decimal.Decimal `db:"gross_weight_kg" json:"grossWeightKg"`
	FreightValue   types.Money     `db:"freight_value" json:"freightValue"`
	TotalValue     types.Money     `db:"total_value" json:"totalValue"`
	TotalCostValue types.Money     `db:"total_cost_value" json:"totalCostValue"`

	// Cached payment sums, refreshed by the payment ledger only
	AmountPaidByCustomer types.Money `db:"amount_paid_by_customer" json:"amountPaidByCustomer"`
	AmountPaidToSupplier types.Money `db:"amount_paid_to_supplier" json:"amountPaidToSupplier"`

	Notes         string `db:"notes" json:"notes,omitempty"`
	InternalNotes string `db:"internal_notes" json:"internalNotes,omitempty"`

	// Table part
	Items []LineItem `db:"-" json:"items"`
}

// LineItem is one product row of an order.
// Cost, price, weight and name are a snapshot copied from the catalog when the
// product was selected; they are never re-synced.
type LineItem struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   id.ID  `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`

	Quantity int64 `db:"quantity" json:"quantity"`
	// QuantityText is the digits-only text shown while editing
	QuantityText string `db:"-" json:"quantityText"`

	UnitCost        types.Money `db:"unit_cost" json:"unitCost"`
	UnitPrice       types.Money `db:"unit_price" json:"unitPrice"`
	UnitWeightGrams int64       `db:"unit_weight_grams" json:"unitWeightGrams"`
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`
}

// NewOrder creates an empty order.
func NewOrder(customerID id.ID) *Order {
	return &Order{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Items:      make([]LineItem, 0),
	}
}

// NewLineItem creates a zero-valued item with a fresh line id.
func NewLineItem() LineItem {
	return LineItem{
		LineID:    id.New(),
		UnitCost:  types.Zero(),
		UnitPrice: types.Zero(),
		Subtotal:  types.Zero(),
	}
}

// CostSubtotal is quantity × unit cost.
func (l LineItem) CostSubtotal() types.Money {
	return l.UnitCost.Mul(decimal.NewFromInt(l.Quantity))
}

// Recompute refreshes the subtotal from quantity and unit price.
func (l *LineItem) Recompute() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// FreightLine projects the item for weight aggregation.
func (l LineItem) FreightLine() freight.Line {
	return freight.Line{
		ProductID:       l.ProductID,
		Quantity:        l.Quantity,
		UnitWeightGrams: l.UnitWeightGrams,
	}
}

// Totals are the derived figures of an item list.
type Totals struct {
	freight.Result
	TotalValue     types.Money
	TotalCostValue types.Money
}

// ComputeTotals derives weight, freight and both totals from items.
func ComputeTotals(items []LineItem) Totals {
	lines := make([]freight.Line, len(items))
	total, cost := types.Zero(), types.Zero()
	for i := range items {
		lines[i] = items[i].FreightLine()
		total = total.Add(items[i].UnitPrice.Mul(decimal.NewFromInt(items[i].Quantity)))
		cost = cost.Add(items[i].CostSubtotal())
	}
	return Totals{
		Result:         freight.Calculate(lines),
		TotalValue:     total,
		TotalCostValue: cost,
	}
}

// Recalculate renumbers lines, refreshes subtotals and merges the derived
// fields into the header. It never reads the previous derived values.
func (o *Order) Recalculate() {
	for i := range o.Items {
		o.Items[i].LineNo = i + 1
		o.Items[i].Recompute()
	}
	t := ComputeTotals(o.Items)
	o.GrossWeightKg = t.GrossKg
	o.FreightValue = t.FreightValue
	o.TotalValue = t.TotalValue
	o.TotalCostValue = t.TotalCostValue
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
		if item.Quantity < 0 {
			return apperror.NewValidation("quantity must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitCost.IsNegative() || item.UnitPrice.IsNegative() {
			return apperror.NewValidation("prices must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitWeightGrams < 0 {
			return apperror.NewValidation("weight must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// Profit is sale total minus cost total.
func Profit(totalValue, totalCostValue types.Money) types.Money {
	return totalValue.Sub(totalCostValue)
}

var hundred = decimal.NewFromInt(100)

// ProfitPercent is profit relative to sale total, in percent.
// It is exactly zero when the sale total is zero.
func ProfitPercent(totalValue, totalCostValue types.Money) decimal.Decimal {
	if totalValue.IsZero() {
		return decimal.Zero
	}
	return Profit(totalValue, totalCostValue).Div(totalValue).Mul(hundred)
}

// Ensure interface compliance at compile time.
var _ entity.Validatable = (*Order)(nil)
