// Package cache decorates the user and item lookups with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shareit-platform/service-booking/internal/domain/item"
	"github.com/shareit-platform/service-booking/internal/domain/user"
	"go.uber.org/zap"
)

// DefaultTTL applies when a non-positive TTL is configured.
const DefaultTTL = 5 * time.Minute

// NewRedisClient builds a Redis client from connection settings.
func NewRedisClient(addr, password string, db, poolSize int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
}

type cachedItem struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type cachedUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

func itemKey(id int64) string { return fmt.Sprintf("booking:item:%d", id) }
func userKey(id int64) string { return fmt.Sprintf("booking:user:%d", id) }

// ItemRepository serves item lookups from Redis and falls back to the wrapped store.
// Redis failures degrade to the wrapped store; they are logged, never returned.
type ItemRepository struct {
	next   item.ItemRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewItemRepository wraps next with a read-through cache.
func NewItemRepository(next item.ItemRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *ItemRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ItemRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *ItemRepository) FindByID(ctx context.Context, id int64) (*item.Item, error) {
	var c cachedItem
	if hit := get(ctx, r.client, itemKey(id), &c, r.logger); hit {
		return item.Reconstruct(c.ID, c.OwnerID, c.Name, c.Description, c.Available, c.Version, c.UpdatedAt), nil
	}

	it, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set(ctx, r.client, itemKey(id), cachedItem{
		ID:          it.ID(),
		OwnerID:     it.OwnerID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.Available(),
		Version:     it.Version(),
		UpdatedAt:   it.UpdatedAt(),
	}, r.ttl, r.logger)
	return it, nil
}

// Upsert writes to the wrapped store, then drops the cached copy. A stale entry left
// behind by a failed invalidation expires with its TTL.
func (r *ItemRepository) Upsert(ctx context.Context, it *item.Item) error {
	if err := r.next.Upsert(ctx, it); err != nil {
		return err
	}
	if err := r.Invalidate(ctx, it.ID()); err != nil {
		r.logger.Warn("cache invalidation failed", zap.Int64("item_id", it.ID()), zap.Error(err))
	}
	return nil
}

// Invalidate drops the cached copy of an item.
func (r *ItemRepository) Invalidate(ctx context.Context, id int64) error {
	if err := r.client.Del(ctx, itemKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate item %d: %w", id, err)
	}
	return nil
}

// UserRepository serves user lookups from Redis and falls back to the wrapped store.
type UserRepository struct {
	next   user.UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewUserRepository wraps next with a read-through cache.
func NewUserRepository(next user.UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *UserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UserRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var c cachedUser
	if hit := get(ctx, r.client, userKey(id), &c, r.logger); hit {
		return user.Reconstruct(c.ID, c.Name, c.Email, c.UpdatedAt), nil
	}

	u, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set(ctx, r.client, userKey(id), cachedUser{
		ID:        u.ID(),
		Name:      u.Name(),
		Email:     u.Email(),
		UpdatedAt: u.UpdatedAt(),
	}, r.ttl, r.logger)
	return u, nil
}

// Upsert writes to the wrapped store, then drops the cached copy. A stale entry left
// behind by a failed invalidation expires with its TTL.
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	if err := r.next.Upsert(ctx, u); err != nil {
		return err
	}
	if err := r.Invalidate(ctx, u.ID()); err != nil {
		r.logger.Warn("cache invalidation failed", zap.Int64("user_id", u.ID()), zap.Error(err))
	}
	return nil
}

// Invalidate drops the cached copy of a user.
func (r *UserRepository) Invalidate(ctx context.Context, id int64) error {
	if err := r.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user %d: %w", id, err)
	}
	return nil
}

func get(ctx context.Context, client *redis.Client, key string, dst any, logger *zap.Logger) bool {
	val, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func set(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration, logger *zap.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
