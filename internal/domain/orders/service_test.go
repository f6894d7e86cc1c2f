package orders_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/numerator"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/orders/orderstest"
)

type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	repo   *orderstest.Repo
	events *recordingPublisher
	svc    *orders.Service
	issued int
}

func newFixture() *fixture {
	f := &fixture{repo: orderstest.NewRepo(), events: &recordingPublisher{}}
	gen := &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config) (string, error) {
			f.issued++
			return fmt.Sprintf("%s%03d", cfg.Prefix, f.issued), nil
		},
	}
	f.svc = orders.NewService(orders.ServiceConfig{
		Repo:      f.repo,
		Numerator: gen,
		TxManager: f.repo.TxManager(),
		Events:    f.events,
	})
	return f
}

func newOrder(items ...orders.LineItem) *orders.Order {
	o := orders.NewOrder(id.New())
	o.Label = "spring batch"
	o.Items = items
	return o
}

func line(q int64, grams int64, price, cost string) orders.LineItem {
	l := orders.NewLineItem()
	l.ProductID = id.New()
	l.Quantity = q
	l.UnitWeightGrams = grams
	l.UnitPrice = types.MustMoney(price)
	l.UnitCost = types.MustMoney(cost)
	return l
}

func TestService_Create(t *testing.T) {
	f := newFixture()
	ctx := appctx.WithViewer(context.Background(), &appctx.Viewer{UserID: "u-1"})
	o := newOrder(line(10, 50, "5", "3"), line(5, 100, "10", "6"))

	require.NoError(t, f.svc.Create(ctx, o))

	assert.Equal(t, "ENC001", o.Number)
	assert.Equal(t, "u-1", o.CreatedBy)

	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.True(t, types.MustMoney("100").Equal(stored.TotalValue))
	assert.True(t, types.MustMoney("5.85").Equal(stored.FreightValue))

	require.Len(t, f.events.events, 1)
	assert.Equal(t, domain.EventOrderCreated, f.events.events[0].EventType)
	assert.Equal(t, o.ID, f.events.events[0].AggregateID)
}

func TestService_CreateEmptyItemsRejectedBeforePersistence(t *testing.T) {
	f := newFixture()
	called := false
	svc := orders.NewService(orders.ServiceConfig{
		Repo:      f.repo,
		Numerator: &numerator.MockGenerator{},
		TxManager: f.repo.TxManager(),
	})
	svc.Hooks().OnAfterCreate(func(ctx context.Context, o *orders.Order) error {
		called = true
		return nil
	})

	o := newOrder()
	err := svc.Create(context.Background(), o)

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, o.Number, "no number is consumed")
	assert.True(t, o.GrossWeightKg.IsZero())
	assert.True(t, o.FreightValue.IsZero())
	assert.False(t, called)

	exists, _ := f.repo.Exists(context.Background(), o.ID)
	assert.False(t, exists)
}

func TestService_SequentialNumbers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := newOrder(line(1, 1, "1", "1"))
	b := newOrder(line(1, 1, "1", "1"))
	require.NoError(t, f.svc.Save(ctx, a))
	require.NoError(t, f.svc.Save(ctx, b))

	assert.Equal(t, "ENC001", a.Number)
	assert.Equal(t, "ENC002", b.Number)
}

func TestService_UpdateReplacesItemsAndKeepsPaidSums(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := newOrder(line(10, 50, "5", "3"), line(5, 100, "10", "6"))
	require.NoError(t, f.svc.Create(ctx, o))
	f.repo.SetPaid(o.ID, func(s *orders.Order) { s.AmountPaidByCustomer = types.MustMoney("40") })

	edited := *o
	edited.Number = "tampered"
	edited.AmountPaidByCustomer = types.Zero()
	edited.Items = []orders.LineItem{line(2, 500, "20", "15")}
	require.NoError(t, f.svc.Save(ctx, &edited))

	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "ENC001", stored.Number)
	require.Len(t, stored.Items, 1)
	assert.True(t, types.MustMoney("40").Equal(stored.TotalValue))
	assert.True(t, types.MustMoney("30").Equal(stored.TotalCostValue))
	assert.True(t, types.MustMoney("40").Equal(stored.AmountPaidByCustomer))
	assert.True(t, types.MustMoney("5.85").Equal(stored.FreightValue))
	assert.Equal(t, 2, stored.Version)
}

func TestService_UpdateFailureRollsBackItemReplacement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := newOrder(line(10, 50, "5", "3"))
	require.NoError(t, f.svc.Create(ctx, o))

	f.repo.FailReplace = errors.New("connection lost")
	edited := *o
	edited.Items = []orders.LineItem{line(1, 1, "1", "1")}
	err := f.svc.Update(ctx, &edited)

	require.Error(t, err)
	assert.True(t, apperror.IsPersistence(err))

	items, _ := f.repo.GetItems(ctx, o.ID)
	assert.Len(t, items, 1, "original items survive")
	assert.Equal(t, int64(10), items[0].Quantity)
}

func TestService_UpdateUnknownOrder(t *testing.T) {
	f := newFixture()
	o := newOrder(line(1, 1, "1", "1"))
	o.Number = "ENC050"

	err := f.svc.Save(context.Background(), o)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_AfterHookFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture()
	f.svc.Hooks().OnAfterCreate(func(ctx context.Context, o *orders.Order) error {
		return errors.New("mail server down")
	})

	err := f.svc.Create(context.Background(), newOrder(line(1, 1, "1", "1")))
	assert.NoError(t, err)
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := newOrder(line(1, 1, "1", "1"))
	require.NoError(t, f.svc.Create(ctx, o))

	require.NoError(t, f.svc.Delete(ctx, o.ID))

	_, err := f.svc.GetByID(ctx, o.ID)
	assert.True(t, apperror.IsNotFound(err))
}
