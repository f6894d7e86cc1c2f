package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"orderdesk/internal/core/id"
	"orderdesk/internal/domain"
	"orderdesk/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is the number of failed deliveries after which a message is parked as failed.
const MaxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   id.ID           `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Status        OutboxStatus    `db:"status"`
	RetryCount    int             `db:"retry_count"`
	LastError     *string         `db:"last_error"`
	NextRetryAt   *time.Time      `db:"next_retry_at"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
}

// OutboxPublisher writes domain events to sys_outbox.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event within the current transaction.
// The event is dropped with the transaction when it rolls back.
func (p *OutboxPublisher) Publish(ctx context.Context, event domain.Event) error {
	if !inTx(ctx) {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = p.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, payload, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers outbox messages.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRelay drains pending messages to a handler. Used by the worker.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{txManager: txManager, batchSize: batchSize, handler: handler}
}

// RetryDelay is the backoff before the next delivery attempt.
func RetryDelay(retryCount int) time.Duration {
	return time.Duration(retryCount+1) * time.Minute
}

// ProcessBatch delivers one batch of due messages and returns how many succeeded.
// Rows stay locked for the duration of the batch so that concurrent workers skip them.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		if err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize); err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			ok, err := r.deliver(ctx, q, msg)
			if err != nil {
				return err
			}
			if ok {
				processed++
			}
		}
		return nil
	})
	return processed, err
}

// deliver hands msg to the handler and records the outcome.
// A handler failure is not an error of the batch.
func (r *OutboxRelay) deliver(ctx context.Context, q Querier, msg *OutboxMessage) (bool, error) {
	if handleErr := r.handler.Handle(ctx, msg); handleErr != nil {
		status := OutboxStatusPending
		if msg.RetryCount+1 >= MaxOutboxRetries {
			status = OutboxStatusFailed
		}
		logger.Warn(ctx, "outbox delivery failed",
			"message_id", msg.ID,
			"event_type", msg.EventType,
			"retry", msg.RetryCount+1,
			"error", handleErr)

		if _, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1, last_error = $1, next_retry_at = $2, status = $3
			WHERE id = $4
		`, handleErr.Error(), time.Now().UTC().Add(RetryDelay(msg.RetryCount)), status, msg.ID); err != nil {
			return false, fmt.Errorf("update failed message: %w", err)
		}
		return false, nil
	}

	if _, err := q.Exec(ctx, `
		UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID); err != nil {
		return false, fmt.Errorf("mark message published: %w", err)
	}
	return true, nil
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := r.ProcessBatch(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Error(ctx, "outbox batch failed", "error", err)
		} else if n > 0 {
			logger.Info(ctx, "outbox batch delivered", "count", n)
		}
		// Drain without waiting while full batches keep coming.
		if n == r.batchSize {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
