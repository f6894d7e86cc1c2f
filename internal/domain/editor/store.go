package editor

import (
	"context"
	"sync"
	"time"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/domain/catalog"
	"orderdesk/internal/domain/orders"
	"orderdesk/pkg/logger"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Store keeps editing sessions in memory and evicts idle ones.
type Store struct {
	root   context.Context
	lookup catalog.Lookup
	ttl    time.Duration
	opts   []Option

	mu       sync.Mutex
	sessions map[id.ID]*Session
}

// NewStore creates a store. Sessions are cancelled when root is done.
func NewStore(root context.Context, lookup catalog.Lookup, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		root:     root,
		lookup:   lookup,
		ttl:      ttl,
		opts:     opts,
		sessions: make(map[id.ID]*Session),
	}
}

// Open starts a session owned by owner over base (nil for a new order).
func (st *Store) Open(owner string, base *orders.Order) *Session {
	s := NewSession(st.root, st.lookup, base, st.opts...)
	s.Owner = owner
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns a live session opened by owner. Sessions of other owners
// are reported as not found.
func (st *Store) Get(owner string, sessionID id.ID) (*Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[sessionID]
	st.mu.Unlock()
	if !ok || s.Owner != owner || s.checkOpen() != nil {
		return nil, apperror.NewNotFound("order draft", sessionID)
	}
	return s, nil
}

// Close ends and forgets a session opened by owner.
func (st *Store) Close(owner string, sessionID id.ID) error {
	st.mu.Lock()
	s, ok := st.sessions[sessionID]
	if ok && s.Owner != owner {
		ok = false
	} else {
		delete(st.sessions, sessionID)
	}
	st.mu.Unlock()
	if !ok {
		return apperror.NewNotFound("order draft", sessionID)
	}
	s.Close()
	return nil
}

// Len returns the number of tracked sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict closes sessions idle since before now minus TTL and returns how
// many were removed.
func (st *Store) Evict(now time.Time) int {
	cutoff := now.Add(-st.ttl)

	st.mu.Lock()
	var stale []*Session
	for sid, s := range st.sessions {
		if s.checkOpen() != nil || s.Touched().Before(cutoff) {
			stale = append(stale, s)
			delete(st.sessions, sid)
		}
	}
	st.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (st *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Evict(now); n > 0 {
				logger.Info(ctx, "evicted idle order drafts", "count", n)
			}
		}
	}
}
