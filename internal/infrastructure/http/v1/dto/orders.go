package dto

import (
	"orderdesk/internal/core/apperror"
	"orderdesk/internal/domain/editor"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/visibility"
)

// --- Request DTOs ---

// OrderHeaderRequest holds the editable header of an order.
type OrderHeaderRequest struct {
	Label                   string  `json:"label" binding:"max=200"`
	Date                    *string `json:"date"`
	CustomerID              string  `json:"customerId" binding:"required,uuid"`
	SupplierID              *string `json:"supplierId" binding:"omitempty,uuid"`
	EstimatedProductionDate *string `json:"estimatedProductionDate"`
	EstimatedDeliveryDate   *string `json:"estimatedDeliveryDate"`
	Notes                   string  `json:"notes"`
	InternalNotes           *string `json:"internalNotes"`
}

// ToHeader parses the header. A nil InternalNotes keeps current.
func (r *OrderHeaderRequest) ToHeader(current string) (editor.Header, error) {
	var h editor.Header

	customerID, err := ParseID("customerId", r.CustomerID)
	if err != nil {
		return h, err
	}
	supplierID, err := ParseOptionalID("supplierId", r.SupplierID)
	if err != nil {
		return h, err
	}
	if r.Date != nil && *r.Date != "" {
		if h.Date, err = ParseDate("date", *r.Date); err != nil {
			return h, err
		}
	}
	if h.EstimatedProductionDate, err = ParseOptionalDate("estimatedProductionDate", r.EstimatedProductionDate); err != nil {
		return h, err
	}
	if h.EstimatedDeliveryDate, err = ParseOptionalDate("estimatedDeliveryDate", r.EstimatedDeliveryDate); err != nil {
		return h, err
	}

	h.Label = r.Label
	h.CustomerID = customerID
	h.SupplierID = supplierID
	h.Notes = r.Notes
	h.InternalNotes = current
	if r.InternalNotes != nil {
		h.InternalNotes = *r.InternalNotes
	}
	return h, nil
}

// OrderItemRequest represents a line in a full-payload save.
type OrderItemRequest struct {
	LineID    *string `json:"lineId" binding:"omitempty,uuid"`
	ProductID string  `json:"productId" binding:"required,uuid"`
	Quantity  string  `json:"quantity"`
	UnitCost  *string `json:"unitCost"`
	UnitPrice *string `json:"unitPrice"`
}

// OrderRequest creates or fully replaces an order.
type OrderRequest struct {
	OrderHeaderRequest
	Items []OrderItemRequest `json:"items" binding:"dive"`
}

// ItemInputs converts item lines. Cost is dropped when the viewer may not
// see it, so the stored snapshot is kept.
func (r *OrderRequest) ItemInputs(d visibility.Decision) ([]editor.ItemInput, error) {
	inputs := make([]editor.ItemInput, len(r.Items))
	for i, it := range r.Items {
		productID, err := ParseID("productId", it.ProductID)
		if err != nil {
			return nil, indexed(err, i)
		}
		lineID, err := ParseOptionalID("lineId", it.LineID)
		if err != nil {
			return nil, indexed(err, i)
		}
		in := editor.ItemInput{
			LineID:    lineID,
			ProductID: productID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
			UnitPrice: it.UnitPrice,
		}
		if !d.Can(visibility.FieldUnitCost) {
			in.UnitCost = nil
		}
		if !d.Can(visibility.FieldUnitPrice) {
			in.UnitPrice = nil
		}
		inputs[i] = in
	}
	return inputs, nil
}

// ApplyHeader copies the header onto order. Internal notes are only
// written by viewers who can see them.
func (r *OrderRequest) ApplyHeader(order *orders.Order, d visibility.Decision) error {
	req := r.OrderHeaderRequest
	if !d.Can(visibility.FieldInternalNotes) {
		req.InternalNotes = nil
	}
	h, err := req.ToHeader(order.InternalNotes)
	if err != nil {
		return err
	}
	order.Label = h.Label
	if !h.Date.IsZero() {
		order.Date = h.Date
	}
	order.CustomerID = h.CustomerID
	order.SupplierID = h.SupplierID
	order.EstimatedProductionDate = h.EstimatedProductionDate
	order.EstimatedDeliveryDate = h.EstimatedDeliveryDate
	order.Notes = h.Notes
	order.InternalNotes = h.InternalNotes
	return nil
}

func indexed(err error, index int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("index", index)
	}
	return err
}

// OrderListQuery contains order list filters.
type OrderListQuery struct {
	ListQuery
	CustomerID string `form:"customerId" binding:"omitempty,uuid"`
	SupplierID string `form:"supplierId" binding:"omitempty,uuid"`
	DateFrom   string `form:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	DateTo     string `form:"dateTo" binding:"omitempty,datetime=2006-01-02"`
}

// ToFilter converts the query to a repository filter.
func (q *OrderListQuery) ToFilter() (orders.ListFilter, error) {
	var f orders.ListFilter
	f.Search = q.Search
	f.Limit = q.Limit
	if f.Limit == 0 {
		f.Limit = 50
	}
	f.Offset = q.Offset
	f.OrderBy = q.OrderBy
	f.IncludeDeleted = q.IncludeDeleted

	var err error
	if f.CustomerID, err = ParseOptionalID("customerId", &q.CustomerID); err != nil {
		return f, err
	}
	if f.SupplierID, err = ParseOptionalID("supplierId", &q.SupplierID); err != nil {
		return f, err
	}
	if f.DateFrom, err = ParseOptionalDate("dateFrom", &q.DateFrom); err != nil {
		return f, err
	}
	if f.DateTo, err = ParseOptionalDate("dateTo", &q.DateTo); err != nil {
		return f, err
	}
	return f, nil
}

// --- Response DTOs ---

// AttachmentRefResponse identifies an order to the attachment subsystem.
type AttachmentRefResponse struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
}
