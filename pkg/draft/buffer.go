// Package draft provides a buffered input value: edits accumulate in a local
// draft and are published as a committed value on blur, on the commit key or
// after a quiet period.
//
//	b := draft.New(ctx, "", func(ctx context.Context, v string, t draft.Trigger) {
//		// apply v
//	}, draft.WithDelay(500*time.Millisecond))
//	b.Input("1")
//	b.Input("12")
//	b.Blur() // onCommit("12", TriggerBlur)
package draft

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period after which a pending draft commits.
const DefaultDelay = 500 * time.Millisecond

// CommitKey is the key that commits the draft immediately.
const CommitKey = "Enter"

// State of a buffer.
type State int

const (
	// Committed means the draft equals the last committed value.
	Committed State = iota
	// Editing means the draft holds input not yet committed.
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "committed"
}

// Trigger identifies what caused a commit.
type Trigger string

const (
	TriggerBlur    Trigger = "blur"
	TriggerEnter   Trigger = "enter"
	TriggerTimeout Trigger = "timeout"
	TriggerManual  Trigger = "manual"
)

// CommitFunc receives committed values in commit order.
// It runs outside the buffer lock but must not commit the same buffer.
type CommitFunc[T any] func(ctx context.Context, value T, trigger Trigger)

// Option configures a Buffer.
type Option func(*options)

type options struct {
	delay time.Duration
}

// WithDelay sets the quiet period. Zero disables timed commits.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.delay = d
	}
}

// Buffer is a two-state value holder. Safe for concurrent use.
type Buffer[T any] struct {
	ctx      context.Context
	onCommit CommitFunc[T]
	delay    time.Duration

	mu        sync.Mutex
	deliverMu sync.Mutex
	state     State
	draft     T
	committed T
	timer     *time.Timer
	// gen invalidates timers armed before the latest input or commit
	gen     uint64
	stopped bool
}

// New creates a buffer in the Committed state holding initial.
// Once ctx is done the buffer stops delivering commits.
func New[T any](ctx context.Context, initial T, onCommit CommitFunc[T], opts ...Option) *Buffer[T] {
	o := options{delay: DefaultDelay}
	for _, opt := range opts {
		opt(&o)
	}
	return &Buffer[T]{
		ctx:       ctx,
		onCommit:  onCommit,
		delay:     o.delay,
		state:     Committed,
		draft:     initial,
		committed: initial,
	}
}

// Focus enters editing mode with the draft reset to the committed value.
func (b *Buffer[T]) Focus() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped || b.state == Editing {
		return
	}
	b.state = Editing
	b.draft = b.committed
}

// Input replaces the draft and restarts the quiet period.
func (b *Buffer[T]) Input(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.state = Editing
	b.draft = v
	b.gen++
	b.armLocked()
}

// Blur commits the pending draft.
func (b *Buffer[T]) Blur() bool {
	return b.Commit(TriggerBlur)
}

// Key commits the pending draft when key is the commit key.
func (b *Buffer[T]) Key(key string) bool {
	if key != CommitKey {
		return false
	}
	return b.Commit(TriggerEnter)
}

// Commit publishes the draft. It reports false when nothing was pending.
func (b *Buffer[T]) Commit(trigger Trigger) bool {
	b.mu.Lock()
	return b.commitLocked(trigger, b.gen)
}

// Draft returns the current draft.
func (b *Buffer[T]) Draft() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft
}

// Committed returns the last committed value.
func (b *Buffer[T]) Committed() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

// State returns the current state.
func (b *Buffer[T]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stop cancels the pending timer. Later input and commits are ignored.
func (b *Buffer[T]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Buffer[T]) armLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if b.delay == 0 {
		return
	}
	gen := b.gen
	b.timer = time.AfterFunc(b.delay, func() {
		b.mu.Lock()
		b.commitLocked(TriggerTimeout, gen)
	})
}

// commitLocked must be called with mu held and releases it.
// Deliveries are serialized by deliverMu, acquired before mu is released,
// so onCommit observes values in commit order.
func (b *Buffer[T]) commitLocked(trigger Trigger, gen uint64) bool {
	if b.stopped || b.state != Editing || gen != b.gen || b.ctx.Err() != nil {
		b.mu.Unlock()
		return false
	}
	b.state = Committed
	b.committed = b.draft
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	value := b.committed

	b.deliverMu.Lock()
	b.mu.Unlock()
	defer b.deliverMu.Unlock()

	if b.onCommit != nil && b.ctx.Err() == nil {
		b.onCommit(b.ctx, value, trigger)
	}
	return true
}
