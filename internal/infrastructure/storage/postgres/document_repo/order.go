package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"orderdesk/internal/core/id"
	"orderdesk/internal/domain"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

// ledgerCols are maintained by the payment ledger and never written by order saves.
var ledgerCols = []string{"amount_paid_by_customer", "amount_paid_to_supplier"}

var itemCols = postgres.ExtractDBColumns[orders.LineItem]()

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*orders.Order]
}

var _ orders.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*orders.Order](
			txManager, ordersTable, "order", postgres.ExtractDBColumns[orders.Order](),
		),
	}
}

// Create inserts the order header.
func (r *OrderRepo) Create(ctx context.Context, order *orders.Order) error {
	return r.Insert(ctx, order)
}

// Update overwrites the order header, keeping the ledger sums.
func (r *OrderRepo) Update(ctx context.Context, order *orders.Order) error {
	return r.UpdateColumns(ctx, order, ledgerCols...)
}

// GetByID loads the order header without items.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	order := &orders.Order{}
	if err := r.BaseDocumentRepo.GetByID(ctx, orderID, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetItems loads the items of an order in line order.
func (r *OrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]orders.LineItem, error) {
	sql, args, err := r.Builder().
		Select(itemCols...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	items := []orders.LineItem{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// ReplaceItems deletes the stored items and inserts items in one round trip.
// Must run inside the save transaction so that a failed insert restores the old set.
func (r *OrderRepo) ReplaceItems(ctx context.Context, orderID id.ID, items []orders.LineItem) error {
	q := r.querier(ctx)

	del, delArgs, err := r.Builder().Delete(orderItemsTable).Where(squirrel.Eq{"order_id": orderID}).ToSql()
	if err != nil {
		return fmt.Errorf("build items delete: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(del, delArgs...)

	cols := append([]string{"order_id"}, itemCols...)
	for _, item := range items {
		data := postgres.StructToMap(item)
		values := make([]any, 0, len(cols))
		values = append(values, orderID)
		for _, col := range itemCols {
			values = append(values, data[col])
		}

		ins, insArgs, err := r.Builder().Insert(orderItemsTable).Columns(cols...).Values(values...).ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		batch.Queue(ins, insArgs...)
	}

	results := q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			if i == 0 {
				return fmt.Errorf("delete items: %w", err)
			}
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("replace items: %w", err)
	}
	return nil
}

// List retrieves order headers with filtering.
func (r *OrderRepo) List(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	q := r.BaseSelect()

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		// DateTo is an inclusive calendar day
		q = q.Where(squirrel.Lt{"date": filter.DateTo.AddDate(0, 0, 1)})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"label": pattern},
		})
	}

	return r.BaseDocumentRepo.List(ctx, q, filter.ListFilter)
}
