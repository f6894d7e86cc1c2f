package payments

import (
	"context"

	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
)

// Repository stores ledger entries. Each side lives in its own table.
type Repository interface {
	// LockOrder takes the order row lock for the rest of the transaction so
	// that concurrent payments on the same order refresh the cache in turn.
	LockOrder(ctx context.Context, orderID id.ID) error
	Insert(ctx context.Context, p *Payment) error
	List(ctx context.Context, orderID id.ID, side Side) ([]Payment, error)
	// RefreshPaidSum recomputes the cached paid sum on the order header from
	// the ledger and returns it.
	RefreshPaidSum(ctx context.Context, orderID id.ID, side Side) (types.Money, error)
}
