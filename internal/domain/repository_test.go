package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_RunStopsAtFirstError(t *testing.T) {
	r := NewHookRegistry[*int]()
	var calls []string
	r.OnBeforeCreate(func(ctx context.Context, v *int) error {
		calls = append(calls, "first")
		return errors.New("reject")
	})
	r.OnBeforeCreate(func(ctx context.Context, v *int) error {
		calls = append(calls, "second")
		return nil
	})

	n := 1
	err := r.Run(context.Background(), BeforeCreate, &n)

	assert.EqualError(t, err, "reject")
	assert.Equal(t, []string{"first"}, calls)
}

func TestHookRegistry_RunBestEffortRunsAll(t *testing.T) {
	r := NewHookRegistry[*int]()
	var calls int
	r.OnAfterCreate(func(ctx context.Context, v *int) error {
		calls++
		return errors.New("audit down")
	})
	r.OnAfterCreate(func(ctx context.Context, v *int) error {
		calls++
		*v = 42
		return nil
	})

	n := 0
	r.RunBestEffort(context.Background(), AfterCreate, &n)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 42, n)
}

func TestHookRegistry_NoHooks(t *testing.T) {
	r := NewHookRegistry[string]()
	assert.NoError(t, r.Run(context.Background(), BeforeUpdate, "x"))
	r.RunBestEffort(context.Background(), AfterDelete, "x")
}
