package application

import (
	"context"
	"time"
)

// EventPublisher delivers domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key, eventType string, data any) error
}

// Clock returns the current instant. Services read "now" through it once per operation.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
