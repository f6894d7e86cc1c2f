// Package catalog is the read-only port to the product catalog.
// Product CRUD lives outside this service; only lookups are consumed.
package catalog

import (
	"context"

	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
)

// FreightProductID is the sentinel product marking a synthetic freight line.
// Such lines count towards totals but not towards shipped weight.
var FreightProductID = id.MustParse("00000000-0000-7000-8000-00000000f8e1")

// IsFreight reports whether productID is the freight sentinel.
func IsFreight(productID id.ID) bool {
	return productID == FreightProductID
}

// Product is the catalog data copied into a line item at selection time.
type Product struct {
	ID              id.ID       `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	UnitCost        types.Money `db:"unit_cost" json:"unitCost"`
	UnitPrice       types.Money `db:"unit_price" json:"unitPrice"`
	UnitWeightGrams int64       `db:"unit_weight_grams" json:"unitWeightGrams"`
}

// Lookup resolves products by id.
// A missing product is reported as apperror NOT_FOUND.
type Lookup interface {
	Get(ctx context.Context, productID id.ID) (*Product, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, productID id.ID) (*Product, error)

// Get implements Lookup.
func (f LookupFunc) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return f(ctx, productID)
}
