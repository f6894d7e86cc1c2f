// Package register_repo provides PostgreSQL implementations for append-only registers.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/payments"
	"orderdesk/internal/infrastructure/storage/postgres"
)

// sideTable names the ledger table and the cached order column of a side.
type sideTable struct {
	table   string
	paidCol string
}

var sideTables = map[payments.Side]sideTable{
	payments.Receivable: {table: "order_payments", paidCol: "amount_paid_by_customer"},
	payments.Payable:    {table: "supplier_payments", paidCol: "amount_paid_to_supplier"},
}

var paymentCols = postgres.ExtractDBColumns[payments.Payment]()

// PaymentRepo implements payments.Repository.
type PaymentRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ payments.Repository = (*PaymentRepo)(nil)

// NewPaymentRepo creates a new payment ledger repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func tableFor(side payments.Side) (sideTable, error) {
	t, ok := sideTables[side]
	if !ok {
		return sideTable{}, apperror.NewValidation("unknown payment side").WithDetail("side", string(side))
	}
	return t, nil
}

// LockOrder locks the order header row until the transaction ends.
// The cache refresh that follows then reads every committed payment.
func (r *PaymentRepo) LockOrder(ctx context.Context, orderID id.ID) error {
	sql, args, err := r.builder.
		Select("id").
		From("orders").
		Where(squirrel.Eq{"id": orderID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock: %w", err)
	}

	var locked id.ID
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound("order", orderID.String())
		}
		return fmt.Errorf("lock order: %w", err)
	}
	return nil
}

// Insert appends a ledger entry.
func (r *PaymentRepo) Insert(ctx context.Context, p *payments.Payment) error {
	t, err := tableFor(p.Side)
	if err != nil {
		return err
	}

	sql, args, err := r.builder.
		Insert(t.table).
		SetMap(postgres.StructToMap(p)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("order", p.OrderID.String()).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", t.table, err)
	}
	return nil
}

// List returns the entries of one side, oldest first.
func (r *PaymentRepo) List(ctx context.Context, orderID id.ID, side payments.Side) ([]payments.Payment, error) {
	t, err := tableFor(side)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.builder.
		Select(paymentCols...).
		From(t.table).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("date", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	list := []payments.Payment{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}
	for i := range list {
		list[i].Side = side
	}
	return list, nil
}

// RefreshPaidSum recomputes the cached sum on the order header from the ledger.
func (r *PaymentRepo) RefreshPaidSum(ctx context.Context, orderID id.ID, side payments.Side) (types.Money, error) {
	t, err := tableFor(side)
	if err != nil {
		return types.Zero(), err
	}

	sum := squirrel.Expr(fmt.Sprintf(
		"(SELECT COALESCE(SUM(amount), 0) FROM %s WHERE order_id = orders.id)", t.table))

	sql, args, err := r.builder.
		Update("orders").
		Set(t.paidCol, sum).
		Where(squirrel.Eq{"id": orderID}).
		Suffix("RETURNING " + t.paidCol).
		ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build refresh: %w", err)
	}

	var paid types.Money
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&paid); err != nil {
		if pgxscan.NotFound(err) {
			return types.Zero(), apperror.NewNotFound("order", orderID.String())
		}
		return types.Zero(), fmt.Errorf("refresh paid sum: %w", err)
	}
	return paid, nil
}
