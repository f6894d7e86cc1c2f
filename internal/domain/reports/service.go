package reports

import (
	"context"
	"fmt"
	"time"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/security"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/payments"
	"orderdesk/internal/domain/visibility"
)

// Service provides report generation operations.
// Reports expose cost figures and are limited to admin and finance viewers,
// evaluated on the capability set after identity overrides.
type Service struct {
	repo   Repository
	policy *visibility.Policy
}

// NewService creates a new reports service.
func NewService(repo Repository, policy *visibility.Policy) *Service {
	return &Service{repo: repo, policy: policy}
}

func (s *Service) authorize(ctx context.Context) error {
	return security.Require(s.policy.Effective(appctx.GetViewer(ctx)), security.CapAdmin, security.CapFinance)
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// OutstandingBalances lists orders with open receivable or payable balances.
// Overpaid orders show negative balances and count as open.
func (s *Service) OutstandingBalances(ctx context.Context, filter OutstandingFilter) (*OutstandingReport, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if filter.Side != "" {
		if _, err := payments.ParseSide(string(filter.Side)); err != nil {
			return nil, err
		}
	}

	figures := FiguresFilter{
		CustomerID: filter.CustomerID,
		SupplierID: filter.SupplierID,
		OpenOnly:   !filter.IncludeSettled,
		Side:       filter.Side,
		Limit:      clampLimit(filter.Limit, 100, 1000),
		Offset:     filter.Offset,
	}
	rows, err := s.repo.ListOrderFigures(ctx, figures)
	if err != nil {
		return nil, fmt.Errorf("get outstanding balances: %w", err)
	}
	totals, err := s.repo.SumOutstanding(ctx, figures)
	if err != nil {
		return nil, fmt.Errorf("sum outstanding balances: %w", err)
	}

	// Totals cover every matching order, not only this page
	report := &OutstandingReport{
		Items:           make([]OutstandingRow, 0, len(rows)),
		TotalReceivable: types.Zero(),
		TotalPayable:    types.Zero(),
	}
	if filter.Side != payments.Payable {
		report.TotalReceivable = totals.Receivable
	}
	if filter.Side != payments.Receivable {
		report.TotalPayable = totals.Payable
	}
	for _, r := range rows {
		row := OutstandingRow{
			OrderID:    r.OrderID,
			Number:     r.Number,
			Date:       r.Date,
			CustomerID: r.CustomerID,
			Receivable: types.Zero(),
			Payable:    types.Zero(),
		}
		if filter.Side != payments.Payable {
			row.Receivable = payments.Outstanding(r.TotalValue, r.PaidByCustomer)
		}
		if filter.Side != payments.Receivable {
			row.Payable = payments.Outstanding(r.TotalCostValue, r.PaidToSupplier)
		}
		if !filter.IncludeSettled && row.Receivable.IsZero() && row.Payable.IsZero() {
			continue
		}
		report.Items = append(report.Items, row)
	}
	return report, nil
}

// ProfitByPeriod groups order profit into day, month or year buckets.
func (s *Service) ProfitByPeriod(ctx context.Context, filter ProfitFilter) (*ProfitReport, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, apperror.NewValidation("from and to are required")
	}
	if filter.From.After(filter.To) {
		return nil, apperror.NewValidation("from must be before to")
	}
	if filter.Granularity == "" {
		filter.Granularity = GranularityMonth
	}

	rows, err := s.repo.ListOrderFigures(ctx, FiguresFilter{
		DateFrom: &filter.From,
		DateTo:   &filter.To,
	})
	if err != nil {
		return nil, fmt.Errorf("get profit by period: %w", err)
	}

	report := &ProfitReport{
		From:        filter.From,
		To:          filter.To,
		Granularity: filter.Granularity,
		Items:       []ProfitRow{},
	}
	index := map[time.Time]int{}
	total := newProfitRow("total", time.Time{})
	for _, r := range rows {
		start := filter.Granularity.PeriodStart(r.Date)
		i, ok := index[start]
		if !ok {
			report.Items = append(report.Items, newProfitRow(filter.Granularity.Label(start), start))
			i = len(report.Items) - 1
			index[start] = i
		}
		report.Items[i].add(r)
		total.add(r)
	}
	for i := range report.Items {
		report.Items[i].finish()
	}
	total.finish()
	report.Total = total
	return report, nil
}

func newProfitRow(label string, start time.Time) ProfitRow {
	return ProfitRow{
		Period:         label,
		PeriodStart:    start,
		TotalValue:     types.Zero(),
		TotalCostValue: types.Zero(),
	}
}

func (r *ProfitRow) add(f OrderFigures) {
	r.Orders++
	r.TotalValue = r.TotalValue.Add(f.TotalValue)
	r.TotalCostValue = r.TotalCostValue.Add(f.TotalCostValue)
}

func (r *ProfitRow) finish() {
	r.Profit = orders.Profit(r.TotalValue, r.TotalCostValue)
	r.ProfitPercent = orders.ProfitPercent(r.TotalValue, r.TotalCostValue)
}
