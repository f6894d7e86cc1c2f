package orders

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/core/numerator"
	"orderdesk/internal/core/tx"
	"orderdesk/internal/domain"
	"orderdesk/internal/domain/audit"
	"orderdesk/pkg/logger"
)

// NumberPrefix is the prefix of human-readable order numbers.
const NumberPrefix = "ENC"

// AggregateType names orders in events and the audit log.
const AggregateType = "order"

// Service saves orders as one unit: header and the full item set.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	events    domain.EventPublisher
	hooks     *domain.HookRegistry[*Order]
	tracer    trace.Tracer
}

// ServiceConfig configures the order service.
type ServiceConfig struct {
	Repo      Repository
	Numerator numerator.Generator
	TxManager tx.Manager
	// Events is optional; nil discards events
	Events domain.EventPublisher
}

// NewService creates a new order service.
func NewService(cfg ServiceConfig) *Service {
	events := cfg.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      cfg.Repo,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		events:    events,
		hooks:     domain.NewHookRegistry[*Order](),
		tracer:    otel.Tracer("orderdesk/orders"),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

// Save creates the order when it has no number yet, otherwise updates it.
func (s *Service) Save(ctx context.Context, order *Order) error {
	if order.Number == "" {
		return s.Create(ctx, order)
	}
	return s.Update(ctx, order)
}

// Create derives totals, assigns the next number and stores header and items.
func (s *Service) Create(ctx context.Context, order *Order) (err error) {
	ctx, span := s.tracer.Start(ctx, "orders.Create")
	defer func() { endSpan(span, err) }()

	order.Recalculate()
	audit.EnrichCreatedBy(ctx, &order.BaseDocument)

	if err := s.hooks.RunBeforeCreate(ctx, order); err != nil {
		return err
	}

	if err := order.Validate(ctx); err != nil {
		return err
	}

	// Numbering runs outside the business transaction
	if order.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix))
		if err != nil {
			return apperror.NewPersistence("generate number", err)
		}
		order.Number = number
	}
	span.SetAttributes(attribute.String("order.number", order.Number))

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return persistenceErr("create order", err)
		}

		if err := s.repo.ReplaceItems(ctx, order.ID, order.Items); err != nil {
			return persistenceErr("save items", err)
		}

		return s.events.Publish(ctx, domain.Event{
			AggregateType: AggregateType,
			AggregateID:   order.ID,
			EventType:     domain.EventOrderCreated,
			Payload: map[string]any{
				"number":     order.Number,
				"customerId": order.CustomerID,
				"totalValue": order.TotalValue,
			},
		})
	})
	if err != nil {
		return err
	}

	s.hooks.RunBestEffort(ctx, domain.AfterCreate, order)

	logger.Info(ctx, "order created",
		"id", order.ID,
		"number", order.Number,
		"items", len(order.Items))

	return nil
}

// Update rewrites the header and replaces the full item set.
// Writes are last-write-wins; number, creation data and cached payment sums
// are kept from the stored order.
func (s *Service) Update(ctx context.Context, order *Order) (err error) {
	ctx, span := s.tracer.Start(ctx, "orders.Update",
		trace.WithAttributes(attribute.String("order.id", order.ID.String())))
	defer func() { endSpan(span, err) }()

	existing, err := s.repo.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}

	order.Number = existing.Number
	order.CreatedAt = existing.CreatedAt
	order.CreatedBy = existing.CreatedBy
	order.Version = existing.Version
	order.AmountPaidByCustomer = existing.AmountPaidByCustomer
	order.AmountPaidToSupplier = existing.AmountPaidToSupplier

	order.Recalculate()
	order.Touch()
	audit.EnrichUpdatedBy(ctx, &order.BaseDocument)

	if err := s.hooks.RunBeforeUpdate(ctx, order); err != nil {
		return err
	}

	if err := order.Validate(ctx); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return persistenceErr("update order", err)
		}

		if err := s.repo.ReplaceItems(ctx, order.ID, order.Items); err != nil {
			return persistenceErr("replace items", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.hooks.RunBestEffort(ctx, domain.AfterUpdate, order)

	logger.Info(ctx, "order updated",
		"id", order.ID,
		"number", order.Number,
		"items", len(order.Items))

	return nil
}

// GetByID retrieves an order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	order.Items = items

	return order, nil
}

// Exists checks whether the order is stored.
func (s *Service) Exists(ctx context.Context, orderID id.ID) (bool, error) {
	return s.repo.Exists(ctx, orderID)
}

// List retrieves order headers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}

// Delete soft-deletes an order.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, orderID, true); err != nil {
			return persistenceErr("delete order", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.MarkDeleted()
	s.hooks.RunBestEffort(ctx, domain.AfterDelete, order)

	logger.Info(ctx, "order deleted", "id", orderID, "number", order.Number)
	return nil
}

// persistenceErr keeps structured errors (not found, duplicate number) and
// wraps anything else as a persistence failure.
func persistenceErr(operation string, err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistence(operation, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
