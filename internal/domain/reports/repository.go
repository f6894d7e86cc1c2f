package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	// ListOrderFigures returns live (not deleted) orders ordered by date.
	ListOrderFigures(ctx context.Context, filter FiguresFilter) ([]OrderFigures, error)

	// SumOutstanding totals value minus paid per side over every order
	// matching filter. Limit and Offset are ignored.
	SumOutstanding(ctx context.Context, filter FiguresFilter) (BalanceTotals, error)
}
