package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "orderdesk/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val string
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*string); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu   sync.Mutex
	row  *mockRow
	sql  string
	args []any
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sql = sql
	m.args = args
	return m.row
}

func TestGetNextNumber(t *testing.T) {
	cfg := corenumerator.DefaultConfig("ENC")

	tests := []struct {
		name string
		row  *mockRow
		want string
	}{
		{"after ENC007", &mockRow{val: "ENC007"}, "ENC008"},
		{"no prior orders", &mockRow{err: pgx.ErrNoRows}, "ENC001"},
		{"wider than pad", &mockRow{val: "ENC1204"}, "ENC1205"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQuerier{row: tt.row}
			svc := NewStatic(q, "orders")

			num, err := svc.GetNextNumber(context.Background(), cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, num)
			assert.Contains(t, q.sql, `"orders"`)
			assert.Equal(t, []any{"ENC%"}, q.args)
		})
	}
}

func TestGetNextNumber_QueryError(t *testing.T) {
	q := &mockQuerier{row: &mockRow{err: errors.New("connection reset")}}
	svc := NewStatic(q, "orders")

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("ENC"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read last number")
}

func TestGetNextNumber_NilService(t *testing.T) {
	var svc *Service
	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("ENC"))
	assert.Error(t, err)
}
