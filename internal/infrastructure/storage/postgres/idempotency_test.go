package postgres

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/core/apperror"
)

func TestIdempotencyStore_Resolve(t *testing.T) {
	s := &IdempotencyStore{ttl: time.Hour}
	now := time.Now().UTC()
	base := IdempotencyRecord{
		Key: "k1", UserID: "u1", Operation: "POST /orders/:id/payments", RequestHash: "h1",
		UpdatedAt: now,
	}

	t.Run("fresh key is owned", func(t *testing.T) {
		rec := base
		rec.Inserted = true
		replay, err := s.resolve(context.Background(), rec, "u1", rec.Operation, "h1", now)
		assert.NoError(t, err)
		assert.Nil(t, replay)
	})

	t.Run("different body conflicts", func(t *testing.T) {
		_, err := s.resolve(context.Background(), base, "u1", base.Operation, "h2", now)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeConflict, appErr.Code)
	})

	t.Run("in flight conflicts", func(t *testing.T) {
		rec := base
		rec.Status = IdempotencyStatusPending
		_, err := s.resolve(context.Background(), rec, "u1", rec.Operation, "h1", now)
		assert.Equal(t, http.StatusConflict, apperror.GetHTTPStatus(err))
	})

	t.Run("finished replays", func(t *testing.T) {
		rec := base
		rec.Status = IdempotencyStatusSuccess
		rec.StatusCode = http.StatusCreated
		rec.Response = []byte(`{"id":"p1"}`)
		replay, err := s.resolve(context.Background(), rec, "u1", rec.Operation, "h1", now)
		require.NoError(t, err)
		require.NotNil(t, replay)
		assert.Equal(t, http.StatusCreated, replay.StatusCode)
		assert.Equal(t, "application/json", replay.ContentType)
		assert.Equal(t, rec.Response, replay.Body)
	})
}
