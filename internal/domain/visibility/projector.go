package visibility

import (
	"time"

	"github.com/shopspring/decimal"

	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/payments"
)

// Settlement is one side of an order's payment state.
type Settlement struct {
	Paid    types.Money `json:"paid"`
	Balance types.Money `json:"balance"`
}

// ItemView is a projected line item.
type ItemView struct {
	LineID          id.ID        `json:"lineId"`
	LineNo          int          `json:"lineNo"`
	ProductID       id.ID        `json:"productId"`
	ProductName     string       `json:"productName"`
	Quantity        int64        `json:"quantity"`
	QuantityText    string       `json:"quantityText,omitempty"`
	UnitWeightGrams int64        `json:"unitWeightGrams"`
	UnitCost        *types.Money `json:"unitCost,omitempty"`
	UnitPrice       *types.Money `json:"unitPrice,omitempty"`
	Subtotal        *types.Money `json:"subtotal,omitempty"`
}

// OrderView is an order as one viewer may see it.
// Hidden fields stay nil and are omitted from JSON.
type OrderView struct {
	ID         id.ID     `json:"id"`
	Number     string    `json:"number"`
	Label      string    `json:"label"`
	Date       time.Time `json:"date"`
	CustomerID id.ID     `json:"customerId"`
	SupplierID *id.ID    `json:"supplierId,omitempty"`

	EstimatedProductionDate *time.Time `json:"estimatedProductionDate,omitempty"`
	EstimatedDeliveryDate   *time.Time `json:"estimatedDeliveryDate,omitempty"`

	GrossWeightKg decimal.Decimal `json:"grossWeightKg"`
	Notes         string          `json:"notes,omitempty"`

	Variant        Variant          `json:"variant"`
	TotalValue     *types.Money     `json:"totalValue,omitempty"`
	FreightValue   *types.Money     `json:"freightValue,omitempty"`
	TotalCostValue *types.Money     `json:"totalCostValue,omitempty"`
	Profit         *types.Money     `json:"profit,omitempty"`
	ProfitPercent  *decimal.Decimal `json:"profitPercent,omitempty"`
	Receivable     *Settlement      `json:"receivable,omitempty"`
	Payable        *Settlement      `json:"payable,omitempty"`
	InternalNotes  *string          `json:"internalNotes,omitempty"`

	Items []ItemView `json:"items,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project maps an order and its items to the view allowed for the viewer.
// The view is built from scratch: a field is only set when it is visible.
func (p *Policy) Project(o *orders.Order, items []orders.LineItem, v *appctx.Viewer) *OrderView {
	return p.ProjectWith(p.Decide(v), o, items)
}

// ProjectWith projects using an already evaluated decision, for lists.
func (p *Policy) ProjectWith(d Decision, o *orders.Order, items []orders.LineItem) *OrderView {
	view := &OrderView{
		ID:                      o.ID,
		Number:                  o.Number,
		Label:                   o.Label,
		Date:                    o.Date,
		CustomerID:              o.CustomerID,
		EstimatedProductionDate: o.EstimatedProductionDate,
		EstimatedDeliveryDate:   o.EstimatedDeliveryDate,
		GrossWeightKg:           o.GrossWeightKg,
		Notes:                   o.Notes,
		Variant:                 d.Variant,
		Version:                 o.Version,
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.UpdatedAt,
	}

	if d.Can(FieldSupplier) && o.SupplierID != nil {
		sid := *o.SupplierID
		view.SupplierID = &sid
	}
	if d.Can(FieldTotalValue) {
		view.TotalValue = money(o.TotalValue)
	}
	if d.Can(FieldFreightValue) {
		view.FreightValue = money(o.FreightValue)
	}
	if d.Can(FieldTotalCostValue) {
		view.TotalCostValue = money(o.TotalCostValue)
	}
	if d.Can(FieldProfit) {
		view.Profit = money(orders.Profit(o.TotalValue, o.TotalCostValue))
	}
	if d.Can(FieldProfitPercent) {
		pct := orders.ProfitPercent(o.TotalValue, o.TotalCostValue)
		view.ProfitPercent = &pct
	}
	if d.Can(FieldReceivable) {
		view.Receivable = &Settlement{
			Paid:    o.AmountPaidByCustomer,
			Balance: payments.Outstanding(o.TotalValue, o.AmountPaidByCustomer),
		}
	}
	if d.Can(FieldPayable) {
		view.Payable = &Settlement{
			Paid:    o.AmountPaidToSupplier,
			Balance: payments.Outstanding(o.TotalCostValue, o.AmountPaidToSupplier),
		}
	}
	if d.Can(FieldInternalNotes) {
		notes := o.InternalNotes
		view.InternalNotes = &notes
	}

	if len(items) > 0 {
		view.Items = make([]ItemView, len(items))
		for i, it := range items {
			iv := ItemView{
				LineID:          it.LineID,
				LineNo:          it.LineNo,
				ProductID:       it.ProductID,
				ProductName:     it.ProductName,
				Quantity:        it.Quantity,
				QuantityText:    it.QuantityText,
				UnitWeightGrams: it.UnitWeightGrams,
			}
			if d.Can(FieldUnitCost) {
				iv.UnitCost = money(it.UnitCost)
			}
			if d.Can(FieldUnitPrice) {
				iv.UnitPrice = money(it.UnitPrice)
				iv.Subtotal = money(it.Subtotal)
			}
			view.Items[i] = iv
		}
	}

	return view
}

func money(m types.Money) *types.Money {
	return &m
}
