package domain

import (
	"context"

	"orderdesk/internal/core/id"
)

// Event types published through the outbox.
const (
	EventOrderCreated    = "OrderCreated"
	EventPaymentRecorded = "PaymentRecorded"
)

// Event is a domain event delivered asynchronously after commit.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// EventPublisher stores events within the current transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
