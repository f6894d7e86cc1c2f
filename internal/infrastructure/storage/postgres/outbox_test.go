package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay_GrowsLinearly(t *testing.T) {
	assert.Equal(t, time.Minute, RetryDelay(0))
	assert.Equal(t, 3*time.Minute, RetryDelay(2))
	assert.Less(t, RetryDelay(1), RetryDelay(MaxOutboxRetries))
}

func TestOutboxHandlerFunc(t *testing.T) {
	var seen string
	h := OutboxHandlerFunc(func(ctx context.Context, msg *OutboxMessage) error {
		seen = msg.EventType
		if msg.EventType == "Broken" {
			return errors.New("smtp down")
		}
		return nil
	})

	assert.NoError(t, h.Handle(context.Background(), &OutboxMessage{EventType: "OrderCreated"}))
	assert.Equal(t, "OrderCreated", seen)
	assert.EqualError(t, h.Handle(context.Background(), &OutboxMessage{EventType: "Broken"}), "smtp down")
}
