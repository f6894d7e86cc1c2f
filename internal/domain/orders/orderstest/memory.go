// Package orderstest provides an in-memory order repository for tests.
package orderstest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/tx"
	"orderdesk/internal/domain"
	"orderdesk/internal/domain/orders"
)

// Repo is an in-memory orders.Repository.
type Repo struct {
	mu     sync.Mutex
	orders map[id.ID]orders.Order
	items  map[id.ID][]orders.LineItem

	// FailReplace makes ReplaceItems fail after deleting the stored items.
	FailReplace error
}

// NewRepo creates an empty repository.
func NewRepo() *Repo {
	return &Repo{
		orders: make(map[id.ID]orders.Order),
		items:  make(map[id.ID][]orders.LineItem),
	}
}

var _ orders.Repository = (*Repo)(nil)

// Create implements orders.Repository.
func (r *Repo) Create(ctx context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.Number == o.Number {
			return apperror.NewDuplicate("order", "number", o.Number)
		}
	}
	stored := *o
	stored.Items = nil
	r.orders[o.ID] = stored
	return nil
}

// GetByID implements orders.Repository.
func (r *Repo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.DeletionMark {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return &o, nil
}

// Update implements orders.Repository.
func (r *Repo) Update(ctx context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.orders[o.ID]
	if !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	stored := *o
	stored.Items = nil
	stored.AmountPaidByCustomer = existing.AmountPaidByCustomer
	stored.AmountPaidToSupplier = existing.AmountPaidToSupplier
	r.orders[o.ID] = stored
	return nil
}

// SetDeletionMark implements orders.Repository.
func (r *Repo) SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.DeletionMark = marked
	r.orders[orderID] = o
	return nil
}

// Exists implements orders.Repository.
func (r *Repo) Exists(ctx context.Context, orderID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	return ok && !o.DeletionMark, nil
}

// GetItems implements orders.Repository.
func (r *Repo) GetItems(ctx context.Context, orderID id.ID) ([]orders.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items[orderID]), nil
}

// ReplaceItems implements orders.Repository.
func (r *Repo) ReplaceItems(ctx context.Context, orderID id.ID, items []orders.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, orderID)
	if r.FailReplace != nil {
		return r.FailReplace
	}
	r.items[orderID] = slices.Clone(items)
	return nil
}

// List implements orders.Repository. Only Search and CustomerID are honoured.
func (r *Repo) List(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*orders.Order
	for _, o := range r.orders {
		if o.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(o.Number+" "+o.Label), strings.ToLower(filter.Search)) {
			continue
		}
		o := o
		out = append(out, &o)
	}
	slices.SortFunc(out, func(a, b *orders.Order) int { return strings.Compare(a.Number, b.Number) })
	return domain.ListResult[*orders.Order]{Items: out, TotalCount: int64(len(out)), Limit: filter.Limit, Offset: filter.Offset}, nil
}

// SetPaid mutates a stored header, e.g. to seed cached payment sums.
func (r *Repo) SetPaid(orderID id.ID, mutate func(o *orders.Order)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[orderID]
	mutate(&o)
	r.orders[orderID] = o
}

// snapshot captures repository state for rollback.
func (r *Repo) snapshot() (map[id.ID]orders.Order, map[id.ID][]orders.LineItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := make(map[id.ID]orders.Order, len(r.orders))
	for k, v := range r.orders {
		o[k] = v
	}
	it := make(map[id.ID][]orders.LineItem, len(r.items))
	for k, v := range r.items {
		it[k] = slices.Clone(v)
	}
	return o, it
}

func (r *Repo) restore(o map[id.ID]orders.Order, it map[id.ID][]orders.LineItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = o
	r.items = it
}

// TxManager returns a transaction manager that restores the repository when
// the unit of work fails.
func (r *Repo) TxManager() tx.Manager {
	return tx.ManagerFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
		o, it := r.snapshot()
		if err := fn(ctx); err != nil {
			r.restore(o, it)
			return err
		}
		return nil
	})
}
