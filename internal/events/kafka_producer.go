package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shareit-platform/service-booking/internal/metrics"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes CloudEvents to Kafka, keyed by aggregate id.
type KafkaProducer struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaProducer creates a producer writing to the given brokers. The topic is chosen per message.
func NewKafkaProducer(brokers []string, logger *zap.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		logger: logger,
	}
}

// Publish wraps data in a CloudEvent and writes it to topic.
func (p *KafkaProducer) Publish(ctx context.Context, topic, key, eventType string, data any) error {
	evt, err := NewCloudEvent(Source, eventType, data)
	if err != nil {
		return err
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal cloud event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "ce_type", Value: []byte(eventType)},
			{Key: "ce_id", Value: []byte(evt.ID)},
		},
	})
	if err != nil {
		metrics.IncPublished(eventType, "error")
		return fmt.Errorf("write %s to %s: %w", eventType, topic, err)
	}

	metrics.IncPublished(eventType, "ok")
	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("event_type", eventType),
		zap.String("event_id", evt.ID),
	)
	return nil
}

// Close flushes pending writes.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
