// Package catalog_repo provides read-only PostgreSQL access to the product catalog.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/domain/catalog"
	"orderdesk/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productCols = postgres.ExtractDBColumns[catalog.Product]()

// ProductRepo implements catalog.Lookup.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ catalog.Lookup = (*ProductRepo)(nil)

// NewProductRepo creates a new product lookup.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get returns a live product. Deletion-marked products are reported as not found.
func (r *ProductRepo) Get(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	sql, args, err := r.builder.
		Select(productCols...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID, "deletion_mark": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}
