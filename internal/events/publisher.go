package events

import (
	"context"
	"fmt"

	"github.com/shareit-platform/service-booking/internal/config"
	"go.uber.org/zap"
)

// Publisher is an event publisher that holds a broker connection.
type Publisher interface {
	Publish(ctx context.Context, topic, key, eventType string, data any) error
	Close() error
}

// NoopPublisher drops every event. It backs EVENTS_DRIVER=none.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher creates a NoopPublisher.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, topic, _, eventType string, _ any) error {
	p.logger.Debug("event dropped", zap.String("topic", topic), zap.String("event_type", eventType))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

// NewPublisher builds the publisher selected by cfg.Driver.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	switch cfg.Driver {
	case config.EventsDriverKafka:
		return NewKafkaProducer(cfg.Brokers, logger), nil
	case config.EventsDriverAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, logger)
	case config.EventsDriverNone, "":
		return NewNoopPublisher(logger), nil
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}
