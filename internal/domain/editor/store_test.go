package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
)

func TestStore_OpenGetClose(t *testing.T) {
	st := NewStore(context.Background(), staticLookup(), time.Minute, WithDelay(0))

	s := st.Open("u1", nil)
	got, err := st.Get("u1", s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	require.NoError(t, st.Close("u1", s.ID))
	_, err = st.Get("u1", s.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(st.Close("u1", s.ID)))
	assert.True(t, apperror.IsNotFound(func() error { _, err := st.Get("u1", id.New()); return err }()))
}

func TestStore_OtherOwnerCannotReachSession(t *testing.T) {
	st := NewStore(context.Background(), staticLookup(), time.Minute, WithDelay(0))
	s := st.Open("u1", nil)
	assert.Equal(t, "u1", s.Owner)

	_, err := st.Get("u2", s.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(st.Close("u2", s.ID)))

	got, err := st.Get("u1", s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())
}

func TestStore_EvictIdle(t *testing.T) {
	st := NewStore(context.Background(), staticLookup(), time.Minute, WithDelay(0))
	idle := st.Open("u1", nil)
	st.Open("u1", nil)

	n := st.Evict(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, st.Len())
	_, err := idle.AddItem()
	assert.ErrorIs(t, err, ErrSessionClosed)

	active := st.Open("u1", nil)
	assert.Equal(t, 0, st.Evict(time.Now()))
	_, err = st.Get("u1", active.ID)
	assert.NoError(t, err)
}

func TestStore_RootCancellationClosesSessions(t *testing.T) {
	root, cancel := context.WithCancel(context.Background())
	st := NewStore(root, staticLookup(), time.Minute)
	s := st.Open("u1", nil)

	cancel()

	_, err := st.Get("u1", s.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 1, st.Evict(time.Now()))
}

func TestStore_RunJanitorStopsWithContext(t *testing.T) {
	st := NewStore(context.Background(), staticLookup(), 10*time.Millisecond)
	st.Open("u1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
