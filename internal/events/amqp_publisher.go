package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shareit-platform/service-booking/internal/metrics"
	"go.uber.org/zap"
)

// AMQP exchange settings. Events are routed by their type.
const (
	ExchangeName = "booking.events"
	ExchangeKind = "topic"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes CloudEvents to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	logger  *zap.Logger
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// Publish wraps data in a CloudEvent and routes it by event type. The topic is
// carried as a header since the exchange is fixed.
func (p *AMQPPublisher) Publish(ctx context.Context, topic, key, eventType string, data any) error {
	evt, err := NewCloudEvent(Source, eventType, data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal cloud event: %w", err)
	}

	if err := p.channel.PublishWithContext(ctx, ExchangeName, eventType, false, false, amqp.Publishing{
		ContentType:  "application/cloudevents+json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Type:         eventType,
		Headers:      amqp.Table{"topic": topic, "key": key},
		Body:         body,
	}); err != nil {
		metrics.IncPublished(eventType, "error")
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	metrics.IncPublished(eventType, "ok")
	p.logger.Debug("event published",
		zap.String("exchange", ExchangeName),
		zap.String("routing_key", eventType),
		zap.String("event_id", evt.ID),
	)
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
