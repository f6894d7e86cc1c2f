package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain/catalog"
	"orderdesk/internal/domain/orders"
)

var (
	widget = &catalog.Product{ID: id.New(), Name: "Widget", UnitCost: types.MustMoney("3"), UnitPrice: types.MustMoney("5"), UnitWeightGrams: 50}
	gadget = &catalog.Product{ID: id.New(), Name: "Gadget", UnitCost: types.MustMoney("6"), UnitPrice: types.MustMoney("10"), UnitWeightGrams: 100}
)

func staticLookup(products ...*catalog.Product) catalog.Lookup {
	return catalog.LookupFunc(func(ctx context.Context, productID id.ID) (*catalog.Product, error) {
		for _, p := range products {
			if p.ID == productID {
				cp := *p
				return &cp, nil
			}
		}
		return nil, apperror.NewNotFound("product", productID)
	})
}

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := NewSession(context.Background(), staticLookup(widget, gadget), nil, append([]Option{WithDelay(0)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func TestSession_AddItemInsertsAtHead(t *testing.T) {
	s := newSession(t)
	first, err := s.AddItem()
	require.NoError(t, err)
	second, err := s.AddItem()
	require.NoError(t, err)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, second.LineID, items[0].LineID)
	assert.Equal(t, first.LineID, items[1].LineID)
	assert.Equal(t, 1, items[0].LineNo)
	assert.True(t, s.Totals().TotalValue.IsZero())
}

func TestSession_TwoLineTotalsAndFreight(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	_, _ = s.AddItem()
	_, _ = s.AddItem()

	require.NoError(t, s.UpdateField(ctx, 0, FieldProductID, widget.ID.String()))
	require.NoError(t, s.UpdateField(ctx, 0, FieldQuantity, "10"))
	require.NoError(t, s.UpdateField(ctx, 1, FieldProductID, gadget.ID.String()))
	require.NoError(t, s.UpdateField(ctx, 1, FieldQuantity, "5"))

	totals := s.Totals()
	assert.True(t, decimal.NewFromInt(1000).Equal(totals.TotalGrams))
	assert.True(t, decimal.RequireFromString("1.3").Equal(totals.GrossKg))
	assert.True(t, types.MustMoney("5.85").Equal(totals.FreightValue))
	assert.True(t, types.MustMoney("100").Equal(totals.TotalValue))
	assert.True(t, types.MustMoney("60").Equal(totals.TotalCostValue))

	items := s.Items()
	assert.Equal(t, "Widget", items[0].ProductName)
	assert.True(t, types.MustMoney("50").Equal(items[0].Subtotal))
}

func TestSession_QuantityCoercion(t *testing.T) {
	tests := []struct {
		raw      string
		wantText string
		wantQty  int64
	}{
		{"12", "12", 12},
		{"1a2", "12", 12},
		{"-7", "7", 7},
		{"3.5", "35", 35},
		{"", "", 0},
		{"abc", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s := newSession(t)
			_, _ = s.AddItem()
			require.NoError(t, s.UpdateField(context.Background(), 0, FieldQuantity, tt.raw))

			it := s.Items()[0]
			assert.Equal(t, tt.wantText, it.QuantityText)
			assert.Equal(t, tt.wantQty, it.Quantity)
		})
	}
}

func TestSession_QuantityOverflow(t *testing.T) {
	s := newSession(t)
	_, _ = s.AddItem()
	err := s.UpdateField(context.Background(), 0, FieldQuantity, "99999999999999999999999")
	assert.True(t, apperror.IsValidation(err))

	err = s.UpdateField(context.Background(), 0, FieldQuantity, "5000000000000000")
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, s.Items()[0].Quantity)
	assert.False(t, s.Totals().FreightValue.IsNegative())
}

func TestSession_PriceClamping(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldQuantity, "2"))

	require.NoError(t, s.UpdateField(ctx, 0, FieldUnitPrice, "-5"))
	assert.True(t, s.Items()[0].UnitPrice.IsZero())

	require.NoError(t, s.UpdateField(ctx, 0, FieldUnitPrice, "not a number"))
	assert.True(t, s.Items()[0].UnitPrice.IsZero())

	require.NoError(t, s.UpdateField(ctx, 0, FieldUnitPrice, "2,5"))
	assert.True(t, types.MustMoney("5").Equal(s.Items()[0].Subtotal))

	require.NoError(t, s.UpdateField(ctx, 0, FieldUnitCost, "1.25"))
	assert.True(t, types.MustMoney("2.5").Equal(s.Totals().TotalCostValue))
}

func TestSession_LookupMissKeepsSnapshot(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldProductID, widget.ID.String()))

	require.NoError(t, s.UpdateField(ctx, 0, FieldProductID, id.New().String()))

	it := s.Items()[0]
	assert.Equal(t, widget.ID, it.ProductID)
	assert.Equal(t, int64(50), it.UnitWeightGrams)
	assert.True(t, widget.UnitPrice.Equal(it.UnitPrice))
}

func TestSession_LookupFailurePropagates(t *testing.T) {
	boom := errors.New("catalog unavailable")
	s := NewSession(context.Background(), catalog.LookupFunc(func(ctx context.Context, productID id.ID) (*catalog.Product, error) {
		return nil, boom
	}), nil, WithDelay(0))
	defer s.Close()
	_, _ = s.AddItem()

	err := s.UpdateField(context.Background(), 0, FieldProductID, id.New().String())
	assert.ErrorIs(t, err, boom)
}

func TestSession_InvalidInput(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	assert.True(t, apperror.IsValidation(s.UpdateField(ctx, 0, FieldQuantity, "1")), "no items")
	_, _ = s.AddItem()
	assert.True(t, apperror.IsValidation(s.UpdateField(ctx, 0, FieldProductID, "not-a-uuid")))
	assert.True(t, apperror.IsValidation(s.RemoveItem(3)))
	assert.True(t, apperror.IsValidation(s.Input(ctx, 0, FieldQuantity, "1", Trigger("paste"))))

	_, err := ParseField("discount")
	assert.True(t, apperror.IsValidation(err))
}

func TestSession_SnapshotNotReresolved(t *testing.T) {
	product := &catalog.Product{ID: id.New(), Name: "Bolt", UnitPrice: types.MustMoney("2"), UnitWeightGrams: 10}
	s := NewSession(context.Background(), staticLookup(product), nil, WithDelay(0))
	defer s.Close()
	ctx := context.Background()
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldProductID, product.ID.String()))

	product.UnitPrice = types.MustMoney("99")
	require.NoError(t, s.UpdateField(ctx, 0, FieldQuantity, "3"))

	assert.True(t, types.MustMoney("6").Equal(s.Items()[0].Subtotal))
}

func TestSession_RemoveItemRecomputes(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	_, _ = s.AddItem()
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldProductID, widget.ID.String()))
	require.NoError(t, s.UpdateField(ctx, 0, FieldQuantity, "10"))
	require.NoError(t, s.UpdateField(ctx, 1, FieldProductID, gadget.ID.String()))
	require.NoError(t, s.UpdateField(ctx, 1, FieldQuantity, "5"))

	require.NoError(t, s.RemoveItem(0))

	assert.Len(t, s.Items(), 1)
	assert.True(t, types.MustMoney("50").Equal(s.Totals().TotalValue))
	assert.True(t, types.MustMoney("2.925").Equal(s.Totals().FreightValue))
}

func TestSession_BufferedInputExcludedUntilCommit(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldUnitPrice, "5"))

	require.NoError(t, s.Input(ctx, 0, FieldQuantity, "", TriggerFocus))
	require.NoError(t, s.Input(ctx, 0, FieldQuantity, "1", TriggerInput))
	require.NoError(t, s.Input(ctx, 0, FieldQuantity, "10", TriggerInput))

	assert.True(t, s.Totals().TotalValue.IsZero(), "draft is not part of the aggregate")
	assert.True(t, s.Pending())
	text, err := s.Draft(0, FieldQuantity)
	require.NoError(t, err)
	assert.Equal(t, "10", text)

	require.NoError(t, s.Input(ctx, 0, FieldQuantity, "10", TriggerBlur))

	assert.False(t, s.Pending())
	assert.True(t, types.MustMoney("50").Equal(s.Totals().TotalValue))
}

func TestSession_EnterCommits(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldQuantity, "4"))

	require.NoError(t, s.Input(ctx, 0, FieldUnitPrice, "2", TriggerInput))
	require.NoError(t, s.Input(ctx, 0, FieldUnitPrice, "2.5", TriggerEnter))

	assert.True(t, types.MustMoney("10").Equal(s.Totals().TotalValue))
}

func TestSession_TimeoutCommits(t *testing.T) {
	s := NewSession(context.Background(), staticLookup(), nil, WithDelay(20*time.Millisecond))
	defer s.Close()
	ctx := context.Background()
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldUnitPrice, "5"))

	require.NoError(t, s.Input(ctx, 0, FieldQuantity, "3", TriggerInput))

	assert.Eventually(t, func() bool {
		return types.MustMoney("15").Equal(s.Totals().TotalValue)
	}, time.Second, 5*time.Millisecond)
}

func TestSession_ProductInputCommitsImmediately(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	_, _ = s.AddItem()

	require.NoError(t, s.Input(ctx, 0, FieldProductID, widget.ID.String(), TriggerInput))

	assert.Equal(t, widget.ID, s.Items()[0].ProductID)
	assert.False(t, s.Pending())
}

func TestSession_CloseDropsLateLookup(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	lookup := catalog.LookupFunc(func(ctx context.Context, productID id.ID) (*catalog.Product, error) {
		close(started)
		<-release
		return widget, nil
	})
	s := NewSession(context.Background(), lookup, nil, WithDelay(0))
	_, _ = s.AddItem()

	done := make(chan error, 1)
	go func() {
		done <- s.UpdateField(context.Background(), 0, FieldProductID, widget.ID.String())
	}()
	<-started
	s.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrSessionClosed)
	assert.True(t, id.IsNil(s.Items()[0].ProductID))

	_, err := s.AddItem()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_CloseCancelsPendingTimer(t *testing.T) {
	s := NewSession(context.Background(), staticLookup(), nil, WithDelay(20*time.Millisecond))
	ctx := context.Background()
	_, _ = s.AddItem()
	require.NoError(t, s.Input(ctx, 0, FieldQuantity, "8", TriggerInput))

	s.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int64(0), s.Items()[0].Quantity)
}

type saverFunc func(ctx context.Context, o *orders.Order) error

func (f saverFunc) Save(ctx context.Context, o *orders.Order) error { return f(ctx, o) }

func TestSession_SaveEmptyRejectedBeforePersistence(t *testing.T) {
	s := newSession(t)
	called := false

	_, err := s.Save(context.Background(), saverFunc(func(ctx context.Context, o *orders.Order) error {
		called = true
		return nil
	}))

	assert.True(t, apperror.IsValidation(err))
	assert.False(t, called)
}

func TestSession_SaveFlushesPendingInput(t *testing.T) {
	s := NewSession(context.Background(), staticLookup(widget), nil, WithDelay(time.Hour))
	defer s.Close()
	ctx := context.Background()
	customer := id.New()
	require.NoError(t, s.SetHeader(Header{Label: "summer", CustomerID: customer}))
	_, _ = s.AddItem()
	require.NoError(t, s.UpdateField(ctx, 0, FieldProductID, widget.ID.String()))
	require.NoError(t, s.Input(ctx, 0, FieldQuantity, "10", TriggerInput))

	var saved *orders.Order
	o, err := s.Save(ctx, saverFunc(func(ctx context.Context, o *orders.Order) error {
		o.Number = "ENC001"
		saved = o
		return nil
	}))
	require.NoError(t, err)

	assert.Same(t, saved, o)
	assert.Equal(t, customer, o.CustomerID)
	assert.Equal(t, "summer", o.Label)
	assert.Equal(t, int64(10), o.Items[0].Quantity)
	assert.True(t, types.MustMoney("50").Equal(o.TotalValue))
	assert.Equal(t, "ENC001", s.Order().Number, "session continues on the stored order")
}

func TestSession_FromExistingOrder(t *testing.T) {
	o := orders.NewOrder(id.New())
	o.Number = "ENC004"
	l := orders.NewLineItem()
	l.ProductID = widget.ID
	l.Quantity = 7
	l.UnitPrice = types.MustMoney("5")
	o.Items = []orders.LineItem{l}

	s := NewSession(context.Background(), staticLookup(), o, WithDelay(0))
	defer s.Close()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "7", items[0].QuantityText)
	assert.True(t, types.MustMoney("35").Equal(s.Totals().TotalValue))
	assert.Equal(t, "ENC004", s.Order().Number)
}
