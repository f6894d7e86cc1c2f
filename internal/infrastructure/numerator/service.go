// Package numerator provides PostgreSQL implementation of document auto-numbering.
// This is the infrastructure layer - it implements core/numerator.Generator interface.
package numerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	corenumerator "orderdesk/internal/core/numerator"
	pkgnumerator "orderdesk/pkg/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, usually the active
// transaction or the pool.
type QuerierFunc func(ctx context.Context) Querier

// Service derives order numbers from the most recently created order.
type Service struct {
	querier QuerierFunc
	table   string
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator reading the last number from table.
func New(querier QuerierFunc, table string) *Service {
	return &Service{querier: querier, table: table}
}

// NewStatic creates a numerator over a fixed querier.
// Use for testing scenarios.
func NewStatic(q Querier, table string) *Service {
	return New(func(context.Context) Querier { return q }, table)
}

// GetNextNumber reads the most recent number with the configured prefix and
// returns its successor. No prior rows yields the first number.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	last, err := s.lastNumber(ctx, cfg.Prefix)
	if err != nil {
		return "", err
	}
	return pkgnumerator.Next(cfg.Prefix, cfg.PadWidth, last), nil
}

func (s *Service) lastNumber(ctx context.Context, prefix string) (string, error) {
	sql := fmt.Sprintf(`
		SELECT number FROM %s
		WHERE number LIKE $1
		ORDER BY created_at DESC, number DESC
		LIMIT 1
	`, pgx.Identifier{s.table}.Sanitize())

	var last string
	err := s.querier(ctx).QueryRow(ctx, sql, prefix+"%").Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last number: %w", err)
	}
	return last, nil
}
