package payments

import (
	"context"
	"time"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/tx"
	"orderdesk/internal/core/types"
	"orderdesk/internal/domain"
	"orderdesk/internal/domain/audit"
	"orderdesk/internal/domain/orders"
	"orderdesk/pkg/logger"
)

// OrderReader loads order headers.
type OrderReader interface {
	GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error)
}

// RecordInput is a payment to append to the ledger.
type RecordInput struct {
	OrderID id.ID
	Side    Side
	Amount  types.Money
	Date    time.Time
	Method  string
	Notes   string
}

// Service records payments and derives balances.
// Inserts need no locking: each one is a single atomic append.
type Service struct {
	repo      Repository
	orders    OrderReader
	txManager tx.Manager
	events    domain.EventPublisher
	audit     audit.Recorder
	now       func() time.Time
}

// ServiceConfig configures the payment service.
type ServiceConfig struct {
	Repo      Repository
	Orders    OrderReader
	TxManager tx.Manager
	Events    domain.EventPublisher // optional
	Audit     audit.Recorder        // optional
	Now       func() time.Time      // optional, defaults to time.Now
}

// NewService creates a new payment service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		orders:    cfg.Orders,
		txManager: cfg.TxManager,
		events:    cfg.Events,
		audit:     cfg.Audit,
		now:       cfg.Now,
	}
	if s.events == nil {
		s.events = domain.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Validate checks the input before any persistence call.
func (s *Service) Validate(in RecordInput) error {
	if _, err := ParseSide(string(in.Side)); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("amount must be greater than zero").
			WithDetail("field", "amount")
	}
	if in.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if IsFutureDate(in.Date, s.now()) {
		return apperror.NewValidation("date must not be in the future").
			WithDetail("field", "date")
	}
	return nil
}

// IsFutureDate reports whether date falls on a calendar day after now.
// Both are compared in UTC.
func IsFutureDate(date, now time.Time) bool {
	d := date.UTC().Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)
	return d.After(today)
}

// RecordPayment appends a payment and refreshes the order's cached paid sum
// for that side within the same transaction. Order totals are not touched.
func (s *Service) RecordPayment(ctx context.Context, in RecordInput) (*Payment, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	if _, err := s.orders.GetByID(ctx, in.OrderID); err != nil {
		return nil, err
	}

	p := &Payment{
		ID:        id.New(),
		OrderID:   in.OrderID,
		Side:      in.Side,
		Amount:    in.Amount,
		Date:      in.Date.UTC(),
		Method:    in.Method,
		Notes:     in.Notes,
		CreatedAt: s.now().UTC(),
		CreatedBy: appctx.GetUserID(ctx),
	}

	var paid types.Money
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockOrder(ctx, p.OrderID); err != nil {
			return persistenceErr("lock order", err)
		}
		if err := s.repo.Insert(ctx, p); err != nil {
			return persistenceErr("insert payment", err)
		}

		var err error
		paid, err = s.repo.RefreshPaidSum(ctx, p.OrderID, p.Side)
		if err != nil {
			return persistenceErr("refresh paid sum", err)
		}

		return s.events.Publish(ctx, domain.Event{
			AggregateType: orders.AggregateType,
			AggregateID:   p.OrderID,
			EventType:     domain.EventPaymentRecorded,
			Payload: map[string]any{
				"paymentId": p.ID,
				"side":      p.Side,
				"amount":    p.Amount,
				"paid":      paid,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		changes := map[string]any{"paymentId": p.ID, "side": p.Side, "amount": p.Amount, "date": p.Date}
		if err := s.audit.LogChange(ctx, orders.AggregateType, p.OrderID, audit.ActionPayment, changes); err != nil {
			logger.Warn(ctx, "audit payment failed", "order_id", p.OrderID, "error", err)
		}
	}

	logger.Info(ctx, "payment recorded",
		"order_id", p.OrderID,
		"side", p.Side,
		"amount", p.Amount.String(),
		"paid", paid.String())

	return p, nil
}

// ListPayments returns the ledger of one side, oldest first.
func (s *Service) ListPayments(ctx context.Context, orderID id.ID, side Side) ([]Payment, error) {
	if _, err := ParseSide(string(side)); err != nil {
		return nil, err
	}
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, orderID, side)
}

// GetBalance derives the balance from the order total and the ledger.
func (s *Service) GetBalance(ctx context.Context, orderID id.ID, side Side) (*BalanceView, error) {
	if _, err := ParseSide(string(side)); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.List(ctx, orderID, side)
	if err != nil {
		return nil, persistenceErr("list payments", err)
	}

	total := SettledTotal(order, side)
	return &BalanceView{
		OrderID: orderID,
		Side:    side,
		Total:   total,
		Paid:    Sum(list),
		Balance: Balance(total, list),
	}, nil
}

func persistenceErr(operation string, err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistence(operation, err)
}
