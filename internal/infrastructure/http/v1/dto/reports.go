package dto

import (
	"orderdesk/internal/domain/payments"
	"orderdesk/internal/domain/reports"
)

// OutstandingQuery filters the outstanding balances report.
type OutstandingQuery struct {
	CustomerID     string `form:"customerId" binding:"omitempty,uuid"`
	SupplierID     string `form:"supplierId" binding:"omitempty,uuid"`
	Side           string `form:"side" binding:"omitempty,oneof=receivable payable"`
	IncludeSettled bool   `form:"includeSettled"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset         int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a report filter.
func (q *OutstandingQuery) ToFilter() (reports.OutstandingFilter, error) {
	f := reports.OutstandingFilter{
		Side:           payments.Side(q.Side),
		IncludeSettled: q.IncludeSettled,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	var err error
	if f.CustomerID, err = ParseOptionalID("customerId", &q.CustomerID); err != nil {
		return f, err
	}
	if f.SupplierID, err = ParseOptionalID("supplierId", &q.SupplierID); err != nil {
		return f, err
	}
	return f, nil
}

// ProfitQuery selects the period range of the profit report.
type ProfitQuery struct {
	From        string `form:"from" binding:"required,datetime=2006-01-02"`
	To          string `form:"to" binding:"required,datetime=2006-01-02"`
	Granularity string `form:"granularity" binding:"omitempty,oneof=day month year"`
}

// ToFilter converts the query to a report filter.
func (q *ProfitQuery) ToFilter() (reports.ProfitFilter, error) {
	var f reports.ProfitFilter
	var err error
	if f.From, err = ParseDate("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = ParseDate("to", q.To); err != nil {
		return f, err
	}
	if f.Granularity, err = reports.ParseGranularity(q.Granularity); err != nil {
		return f, err
	}
	return f, nil
}
