// Package editor implements line item editing sessions: buffered numeric
// input, product selection against the catalog and always-consistent
// aggregates computed from committed values only.
package editor

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/catalog"
	"orderdesk/internal/domain/orders"
	"orderdesk/pkg/draft"
	"orderdesk/pkg/logger"
)

// Field is an editable line item field.
type Field string

const (
	FieldProductID Field = "productId"
	FieldQuantity  Field = "quantity"
	FieldUnitCost  Field = "unitCost"
	FieldUnitPrice Field = "unitPrice"
)

// ParseField validates a raw field name.
func ParseField(raw string) (Field, error) {
	switch f := Field(raw); f {
	case FieldProductID, FieldQuantity, FieldUnitCost, FieldUnitPrice:
		return f, nil
	default:
		return "", apperror.NewValidation("unknown field").
			WithDetail("field", raw)
	}
}

// Debounced reports whether input to the field is buffered before commit.
// Product selection commits immediately.
func (f Field) Debounced() bool {
	return f != FieldProductID
}

// Trigger is a UI event delivered to a field.
type Trigger string

const (
	TriggerInput Trigger = "input"
	TriggerFocus Trigger = "focus"
	TriggerBlur  Trigger = "blur"
	TriggerEnter Trigger = "enter"
)

// ErrSessionClosed is returned for operations on a closed session.
var ErrSessionClosed = errors.New("editing session closed")

// Header is the editable order header.
type Header struct {
	Label                   string
	Date                    time.Time
	CustomerID              id.ID
	SupplierID              *id.ID
	EstimatedProductionDate *time.Time
	EstimatedDeliveryDate   *time.Time
	Notes                   string
	InternalNotes           string
}

// Saver persists an assembled order.
type Saver interface {
	Save(ctx context.Context, order *orders.Order) error
}

type bufferKey struct {
	lineID id.ID
	field  Field
}

// Session edits the items of one order. The item list is an immutable
// snapshot replaced wholesale on every commit, under mu, so commits are
// strictly ordered and readers never observe a partial update.
type Session struct {
	ID id.ID
	// Owner is the user id of whoever opened the session.
	Owner string

	ctx    context.Context
	cancel context.CancelFunc
	lookup catalog.Lookup
	delay  time.Duration

	mu      sync.Mutex
	base    orders.Order
	items   []orders.LineItem
	totals  orders.Totals
	buffers map[bufferKey]*draft.Buffer[string]
	touched time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithDelay sets the quiet period for debounced fields.
func WithDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

// NewSession starts editing base. A nil base starts a new order; a stored
// order keeps its id and number so saving updates it.
// The session lives until parent is done or Close is called.
func NewSession(parent context.Context, lookup catalog.Lookup, base *orders.Order, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:      id.New(),
		ctx:     ctx,
		cancel:  cancel,
		lookup:  lookup,
		delay:   draft.DefaultDelay,
		buffers: make(map[bufferKey]*draft.Buffer[string]),
		touched: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if base == nil {
		base = orders.NewOrder(id.Nil())
	}
	s.base = *base
	s.base.Items = nil

	items := make([]orders.LineItem, len(base.Items))
	for i, it := range base.Items {
		it.QuantityText = strconv.FormatInt(it.Quantity, 10)
		it.Recompute()
		items[i] = it
	}
	s.replaceLocked(items)
	return s
}

// replaceLocked installs a new snapshot and its derived totals.
func (s *Session) replaceLocked(items []orders.LineItem) {
	for i := range items {
		items[i].LineNo = i + 1
	}
	s.items = items
	s.totals = orders.ComputeTotals(items)
	s.touched = time.Now()
}

func (s *Session) checkOpen() error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	return nil
}

// Items returns a copy of the committed item snapshot.
func (s *Session) Items() []orders.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Totals returns weight, freight and totals of committed values.
func (s *Session) Totals() orders.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Order assembles the header and committed items with derived fields set.
func (s *Session) Order() *orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.base
	o.Items = slices.Clone(s.items)
	o.Recalculate()
	return &o
}

// Touched returns the time of the last mutation.
func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// SetHeader replaces the editable header fields.
func (s *Session) SetHeader(h Header) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base.Label = h.Label
	if !h.Date.IsZero() {
		s.base.Date = h.Date
	}
	s.base.CustomerID = h.CustomerID
	s.base.SupplierID = h.SupplierID
	s.base.EstimatedProductionDate = h.EstimatedProductionDate
	s.base.EstimatedDeliveryDate = h.EstimatedDeliveryDate
	s.base.Notes = h.Notes
	s.base.InternalNotes = h.InternalNotes
	s.touched = time.Now()
	return nil
}

// AddItem inserts a zero-valued item at the head of the list.
func (s *Session) AddItem() (orders.LineItem, error) {
	if err := s.checkOpen(); err != nil {
		return orders.LineItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item := orders.NewLineItem()
	next := make([]orders.LineItem, 0, len(s.items)+1)
	next = append(next, item)
	next = append(next, s.items...)
	s.replaceLocked(next)
	return next[0], nil
}

// RemoveItem removes the item at index and drops its pending input.
func (s *Session) RemoveItem(index int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkIndexLocked(index); err != nil {
		s.mu.Unlock()
		return err
	}
	lineID := s.items[index].LineID
	s.replaceLocked(slices.Delete(slices.Clone(s.items), index, index+1))
	stale := s.detachLocked(func(key bufferKey) bool { return key.lineID == lineID })
	s.mu.Unlock()

	stopAll(stale)
	return nil
}

// detachLocked removes matching buffers from the session. Callers stop them
// after releasing mu: buffer deliveries take mu, so buffer methods are never
// called while holding it.
func (s *Session) detachLocked(match func(bufferKey) bool) []*draft.Buffer[string] {
	var out []*draft.Buffer[string]
	for key, b := range s.buffers {
		if match(key) {
			out = append(out, b)
			delete(s.buffers, key)
		}
	}
	return out
}

func stopAll(buffers []*draft.Buffer[string]) {
	for _, b := range buffers {
		b.Stop()
	}
}

func (s *Session) checkIndexLocked(index int) error {
	if index < 0 || index >= len(s.items) {
		return apperror.NewValidation("item index out of range").
			WithDetail("index", index).
			WithDetail("count", len(s.items))
	}
	return nil
}

// UpdateField commits raw to the field of the item at index immediately.
func (s *Session) UpdateField(ctx context.Context, index int, field Field, raw string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkIndexLocked(index); err != nil {
		s.mu.Unlock()
		return err
	}
	lineID := s.items[index].LineID
	// An explicit commit supersedes pending input for the field
	stale := s.detachLocked(func(key bufferKey) bool { return key == bufferKey{lineID, field} })
	s.mu.Unlock()
	stopAll(stale)

	return s.apply(ctx, lineID, field, raw)
}

// Input delivers a UI event for a field. Debounced fields buffer input and
// commit on blur, Enter or after the quiet period; product selection commits
// on any trigger that carries a value.
func (s *Session) Input(ctx context.Context, index int, field Field, raw string, trigger Trigger) error {
	if !field.Debounced() {
		if trigger == TriggerFocus {
			return s.checkOpen()
		}
		return s.UpdateField(ctx, index, field, raw)
	}

	b, err := s.buffer(index, field)
	if err != nil {
		return err
	}

	switch trigger {
	case TriggerFocus:
		b.Focus()
	case TriggerInput:
		b.Input(raw)
	case TriggerBlur:
		if raw != b.Draft() {
			b.Input(raw)
		}
		b.Blur()
	case TriggerEnter:
		if raw != b.Draft() {
			b.Input(raw)
		}
		b.Key(draft.CommitKey)
	default:
		return apperror.NewValidation("unknown trigger").
			WithDetail("trigger", string(trigger))
	}
	s.mu.Lock()
	s.touched = time.Now()
	s.mu.Unlock()
	return nil
}

// Draft returns the text being typed into a field, or the committed text
// when the field is not being edited.
func (s *Session) Draft(index int, field Field) (string, error) {
	s.mu.Lock()
	if err := s.checkIndexLocked(index); err != nil {
		s.mu.Unlock()
		return "", err
	}
	item := s.items[index]
	b, ok := s.buffers[bufferKey{item.LineID, field}]
	s.mu.Unlock()

	if ok {
		return b.Draft(), nil
	}
	return committedText(item, field), nil
}

// Pending reports whether any debounced field holds uncommitted input.
func (s *Session) Pending() bool {
	for _, b := range s.snapshotBuffers() {
		if b.State() == draft.Editing {
			return true
		}
	}
	return false
}

func (s *Session) snapshotBuffers() []*draft.Buffer[string] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*draft.Buffer[string], 0, len(s.buffers))
	for _, b := range s.buffers {
		out = append(out, b)
	}
	return out
}

// Flush commits all pending input, as leaving the form would.
func (s *Session) Flush() {
	for _, b := range s.snapshotBuffers() {
		b.Blur()
	}
}

func (s *Session) buffer(index int, field Field) (*draft.Buffer[string], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndexLocked(index); err != nil {
		return nil, err
	}
	item := s.items[index]
	key := bufferKey{item.LineID, field}
	if b, ok := s.buffers[key]; ok {
		return b, nil
	}

	b := draft.New(s.ctx, committedText(item, field), func(ctx context.Context, raw string, t draft.Trigger) {
		if err := s.apply(ctx, key.lineID, key.field, raw); err != nil && !errors.Is(err, ErrSessionClosed) {
			logger.Warn(ctx, "buffered commit failed",
				"session_id", s.ID,
				"field", string(key.field),
				"trigger", string(t),
				"error", err)
		}
	}, draft.WithDelay(s.delay))
	s.buffers[key] = b
	return b, nil
}

func committedText(item orders.LineItem, field Field) string {
	switch field {
	case FieldQuantity:
		return item.QuantityText
	case FieldUnitCost:
		return item.UnitCost.String()
	case FieldUnitPrice:
		return item.UnitPrice.String()
	case FieldProductID:
		if id.IsNil(item.ProductID) {
			return ""
		}
		return item.ProductID.String()
	}
	return ""
}

// apply commits one field value to the line identified by lineID.
// Lines are addressed by id, not position, so a commit that lands after the
// line was removed is dropped.
func (s *Session) apply(ctx context.Context, lineID id.ID, field Field, raw string) error {
	if field == FieldProductID {
		return s.selectProduct(ctx, lineID, raw)
	}

	var mutate func(*orders.LineItem) error
	switch field {
	case FieldQuantity:
		digits, qty, err := ParseQuantity(raw)
		if err != nil {
			return err
		}
		mutate = func(it *orders.LineItem) error {
			it.QuantityText = digits
			it.Quantity = qty
			return nil
		}
	case FieldUnitCost:
		v := types.ParseNonNegative(raw)
		mutate = func(it *orders.LineItem) error {
			it.UnitCost = v
			return nil
		}
	case FieldUnitPrice:
		v := types.ParseNonNegative(raw)
		mutate = func(it *orders.LineItem) error {
			it.UnitPrice = v
			return nil
		}
	default:
		return apperror.NewValidation("unknown field").WithDetail("field", string(field))
	}
	return s.commit(lineID, mutate)
}

func (s *Session) commit(lineID id.ID, mutate func(*orders.LineItem) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.items, func(it orders.LineItem) bool { return it.LineID == lineID })
	if idx < 0 {
		return nil
	}
	next := slices.Clone(s.items)
	if err := mutate(&next[idx]); err != nil {
		return err
	}
	next[idx].Recompute()
	s.replaceLocked(next)
	return nil
}

func (s *Session) selectProduct(ctx context.Context, lineID id.ID, raw string) error {
	productID, err := id.Parse(strings.TrimSpace(raw))
	if err != nil {
		return apperror.NewValidation("invalid product id").
			WithDetail("field", string(FieldProductID))
	}

	// The lookup runs without the session lock
	product, err := s.lookup.Get(ctx, productID)
	if err := s.checkOpen(); err != nil {
		return err
	}
	if apperror.IsNotFound(err) {
		logger.Warn(ctx, "product lookup miss, keeping snapshot",
			"session_id", s.ID,
			"product_id", productID)
		return nil
	}
	if err != nil {
		return err
	}

	return s.commit(lineID, func(it *orders.LineItem) error {
		copySnapshot(it, product)
		return nil
	})
}

// MaxQuantity is the largest quantity accepted for one line.
const MaxQuantity = 1_000_000_000

// ParseQuantity strips every non-digit character. It returns the digits for
// display and the value for computation; no digits means zero. Values above
// MaxQuantity are rejected.
func ParseQuantity(raw string) (string, int64, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", 0, nil
	}
	qty, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || qty > MaxQuantity {
		return "", 0, apperror.NewValidation("quantity is too large").
			WithDetail("field", string(FieldQuantity))
	}
	return digits, qty, nil
}

// Save commits pending input, then persists header and committed items.
// An empty item list is rejected before saver is called. On success the
// session continues editing the stored order.
func (s *Session) Save(ctx context.Context, saver Saver) (*orders.Order, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.Flush()

	o := s.Order()
	if len(o.Items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	if err := saver.Save(ctx, o); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.base = *o
	s.base.Items = nil
	s.touched = time.Now()
	s.mu.Unlock()
	return o, nil
}

// Close cancels the session. Pending input is discarded and late lookups or
// timers find no destination.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	stale := s.detachLocked(func(bufferKey) bool { return true })
	s.mu.Unlock()
	stopAll(stale)
}
