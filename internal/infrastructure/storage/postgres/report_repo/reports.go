// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderdesk/internal/domain/payments"
	"orderdesk/internal/domain/reports"
	"orderdesk/internal/infrastructure/storage/postgres"
)

var figureCols = postgres.ExtractDBColumns[reports.OrderFigures]()

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// openReceivable and openPayable match orders with a nonzero balance on a side.
var (
	openReceivable = squirrel.Expr("total_value <> amount_paid_by_customer")
	openPayable    = squirrel.Expr("total_cost_value <> amount_paid_to_supplier")
)

// filtered applies the row predicates of filter; paging is left to the caller.
func filtered(q squirrel.SelectBuilder, filter reports.FiguresFilter) squirrel.SelectBuilder {
	q = q.From("orders").Where(squirrel.Eq{"deletion_mark": false})

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
	if filter.OpenOnly {
		switch filter.Side {
		case payments.Receivable:
			q = q.Where(openReceivable)
		case payments.Payable:
			q = q.Where(openPayable)
		default:
			q = q.Where(squirrel.Or{openReceivable, openPayable})
		}
	}
	return q
}

// ListOrderFigures reads the header figures of live orders, oldest first.
func (r *ReportRepo) ListOrderFigures(ctx context.Context, filter reports.FiguresFilter) ([]reports.OrderFigures, error) {
	q := filtered(r.builder.Select(figureCols...), filter).OrderBy("date", "number")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := []reports.OrderFigures{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("order figures: %w", err)
	}
	return rows, nil
}

// SumOutstanding totals open balances over all matching orders.
func (r *ReportRepo) SumOutstanding(ctx context.Context, filter reports.FiguresFilter) (reports.BalanceTotals, error) {
	q := filtered(r.builder.Select(
		"COALESCE(SUM(total_value - amount_paid_by_customer), 0) AS receivable",
		"COALESCE(SUM(total_cost_value - amount_paid_to_supplier), 0) AS payable",
	), filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return reports.BalanceTotals{}, fmt.Errorf("build query: %w", err)
	}

	var totals reports.BalanceTotals
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &totals, sql, args...); err != nil {
		return reports.BalanceTotals{}, fmt.Errorf("sum outstanding: %w", err)
	}
	return totals, nil
}
