package main

import (
	"context"
	"encoding/json"
	"fmt"

	"orderdesk/internal/domain"
	"orderdesk/internal/infrastructure/storage/postgres"
	"orderdesk/pkg/logger"
)

// LogNotifier delivers order notifications to the log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithComponent("notifier")}
}

// Handle implements postgres.OutboxHandler. Unknown event types are
// acknowledged so they do not block the queue.
func (n *LogNotifier) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	var payload map[string]any
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode payload of %s: %w", msg.ID, err)
		}
	}

	switch msg.EventType {
	case domain.EventOrderCreated:
		n.log.Infow("order created",
			"order_id", msg.AggregateID,
			"number", payload["number"],
			"total_value", payload["totalValue"])
	case domain.EventPaymentRecorded:
		n.log.Infow("payment recorded",
			"order_id", msg.AggregateID,
			"side", payload["side"],
			"amount", payload["amount"],
			"paid", payload["paid"])
	default:
		n.log.Debugw("ignored outbox event", "event_type", msg.EventType, "id", msg.ID)
	}
	return nil
}

var _ postgres.OutboxHandler = (*LogNotifier)(nil)
