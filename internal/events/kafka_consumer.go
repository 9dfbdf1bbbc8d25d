package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shareit-platform/service-booking/internal/application"
	"github.com/shareit-platform/service-booking/internal/domain"
	"github.com/shareit-platform/service-booking/internal/metrics"
	"go.uber.org/zap"
)

// Catalog topic and the event types this service consumes from it.
const (
	TopicCatalogEvents = "catalog.events"

	UserUpserted = "user.upserted"
	ItemUpserted = "item.upserted"
)

// Directory applies upstream user and item records.
type Directory interface {
	UpsertUser(ctx context.Context, cmd application.UpsertUserCommand) (*application.UserDTO, error)
	UpsertItem(ctx context.Context, cmd application.UpsertItemCommand) (*application.ItemDTO, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CatalogConsumer listens to catalog events and keeps the local replicas current.
type CatalogConsumer struct {
	reader    messageReader
	directory Directory
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewCatalogConsumer creates a new CatalogConsumer in the given consumer group.
func NewCatalogConsumer(
	brokers []string,
	groupID string,
	directory Directory,
	logger *zap.Logger,
) *CatalogConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          TopicCatalogEvents,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
	return &CatalogConsumer{
		reader:    reader,
		directory: directory,
		retry:     DefaultRetryPolicy,
		logger:    logger,
	}
}

// Start consumes catalog events. This blocks until the context is cancelled.
// A message is committed once it was applied, skipped as malformed, or its retries ran out.
func (c *CatalogConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to fetch catalog event", zap.Error(err))
			if !sleep(ctx, c.retry.NextDelay(1)) {
				return ctx.Err()
			}
			continue
		}

		c.handleWithRetry(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to commit catalog event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// Close closes the underlying Kafka reader.
func (c *CatalogConsumer) Close() error {
	return c.reader.Close()
}

func (c *CatalogConsumer) handleWithRetry(ctx context.Context, msg kafka.Message) {
	for attempt := 1; ; attempt++ {
		err := c.handleMessage(ctx, msg)
		if err == nil {
			return
		}
		if attempt > c.retry.MaxRetries {
			c.logger.Error("giving up on catalog event",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}
		if !sleep(ctx, c.retry.NextDelay(attempt)) {
			return
		}
	}
}

func (c *CatalogConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	var cloudEvent CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from catalog topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		metrics.IncConsumed("unknown", "malformed")
		return nil // Don't retry malformed messages
	}

	var err error
	switch cloudEvent.Type {
	case UserUpserted:
		err = c.handleUserUpserted(ctx, cloudEvent)
	case ItemUpserted:
		err = c.handleItemUpserted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled catalog event type",
			zap.String("type", cloudEvent.Type),
		)
		metrics.IncConsumed(cloudEvent.Type, "ignored")
		return nil
	}

	switch {
	case err == nil:
		metrics.IncConsumed(cloudEvent.Type, "ok")
		return nil
	case errors.Is(err, errMalformed) || domain.IsKind(err, domain.KindBadRequest):
		c.logger.Warn("skipping invalid catalog event",
			zap.String("type", cloudEvent.Type),
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		metrics.IncConsumed(cloudEvent.Type, "malformed")
		return nil
	default:
		metrics.IncConsumed(cloudEvent.Type, "error")
		return err
	}
}

var errMalformed = errors.New("malformed event data")

func (c *CatalogConsumer) handleUserUpserted(ctx context.Context, cloudEvent CloudEvent) error {
	var cmd application.UpsertUserCommand
	if err := cloudEvent.ParseData(&cmd); err != nil {
		return errors.Join(errMalformed, err)
	}
	_, err := c.directory.UpsertUser(ctx, cmd)
	return err
}

func (c *CatalogConsumer) handleItemUpserted(ctx context.Context, cloudEvent CloudEvent) error {
	var cmd application.UpsertItemCommand
	if err := cloudEvent.ParseData(&cmd); err != nil {
		return errors.Join(errMalformed, err)
	}
	_, err := c.directory.UpsertItem(ctx, cmd)
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
