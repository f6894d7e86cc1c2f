package editor

import (
	"context"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/catalog"
	"orderdesk/internal/domain/orders"
)

// ItemInput is one line of a full-payload save.
// Nil cost or price keeps the snapshot value.
type ItemInput struct {
	LineID    *id.ID
	ProductID id.ID
	Quantity  string
	UnitCost  *string
	UnitPrice *string
}

// BuildItems coerces a full item payload with the same rules as an editing
// session. A line whose id and product match a stored line keeps that
// line's snapshot; any other line copies the product from the catalog.
// A line id may appear at most once.
func BuildItems(ctx context.Context, lookup catalog.Lookup, stored []orders.LineItem, inputs []ItemInput) ([]orders.LineItem, error) {
	byLine := make(map[id.ID]orders.LineItem, len(stored))
	for _, it := range stored {
		byLine[it.LineID] = it
	}

	seen := make(map[id.ID]struct{}, len(inputs))
	items := make([]orders.LineItem, 0, len(inputs))
	for i, in := range inputs {
		if in.LineID != nil && !id.IsNil(*in.LineID) {
			if _, dup := seen[*in.LineID]; dup {
				return nil, apperror.NewValidation("duplicate lineId").
					WithDetail("lineId", in.LineID.String()).
					WithDetail("index", i)
			}
			seen[*in.LineID] = struct{}{}
		}

		item, err := resolveLine(ctx, lookup, byLine, in)
		if err != nil {
			return nil, withIndex(err, i)
		}

		digits, qty, err := ParseQuantity(in.Quantity)
		if err != nil {
			return nil, withIndex(err, i)
		}
		item.QuantityText = digits
		item.Quantity = qty
		if in.UnitCost != nil {
			item.UnitCost = types.ParseNonNegative(*in.UnitCost)
		}
		if in.UnitPrice != nil {
			item.UnitPrice = types.ParseNonNegative(*in.UnitPrice)
		}
		item.LineNo = i + 1
		item.Recompute()
		items = append(items, item)
	}
	return items, nil
}

func resolveLine(ctx context.Context, lookup catalog.Lookup, byLine map[id.ID]orders.LineItem, in ItemInput) (orders.LineItem, error) {
	if in.LineID != nil {
		if prev, ok := byLine[*in.LineID]; ok && prev.ProductID == in.ProductID {
			return prev, nil
		}
	}

	item := orders.NewLineItem()
	if in.LineID != nil && !id.IsNil(*in.LineID) {
		item.LineID = *in.LineID
	}

	product, err := lookup.Get(ctx, in.ProductID)
	if apperror.IsNotFound(err) {
		return item, apperror.NewValidation("unknown product").
			WithDetail("field", string(FieldProductID)).
			WithDetail("productId", in.ProductID.String())
	}
	if err != nil {
		return item, err
	}

	copySnapshot(&item, product)
	return item, nil
}

// copySnapshot copies the catalog data of p into a line item.
func copySnapshot(it *orders.LineItem, p *catalog.Product) {
	it.ProductID = p.ID
	it.ProductName = p.Name
	it.UnitCost = types.ClampNonNegative(p.UnitCost)
	it.UnitPrice = types.ClampNonNegative(p.UnitPrice)
	it.UnitWeightGrams = max(p.UnitWeightGrams, 0)
}

func withIndex(err error, index int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("index", index)
	}
	return err
}
