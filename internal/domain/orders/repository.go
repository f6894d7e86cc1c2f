package orders

import (
	"context"
	"time"

	"orderdesk/internal/core/id"
	"orderdesk/internal/domain"
)

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	Update(ctx context.Context, order *Order) error
	SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error
	Exists(ctx context.Context, orderID id.ID) (bool, error)

	// Item operations
	GetItems(ctx context.Context, orderID id.ID) ([]LineItem, error)
	// ReplaceItems deletes every stored item of the order and inserts items.
	// Callers run it inside a transaction.
	ReplaceItems(ctx context.Context, orderID id.ID, items []LineItem) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
}

// ListFilter for filtering orders.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	SupplierID *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time
}
