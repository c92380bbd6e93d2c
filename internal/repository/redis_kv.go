package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "kvstore"

// RedisKVStore implements domain.KeyValueStore on top of plain Redis strings.
// Values never expire.
type RedisKVStore struct {
	client *redis.Client
	prefix string
}

var _ domain.KeyValueStore = (*RedisKVStore)(nil)

// NewRedisKVStore creates a Redis-backed store. prefix is prepended to every
// key so several apps can share one Redis database.
func NewRedisKVStore(client *redis.Client, prefix string) *RedisKVStore {
	return &RedisKVStore{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a value by key with OTel tracing
func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("store.key", key)),
	)
	defer span.End()

	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.String("store.result", "miss"))
			return "", domain.ErrKeyNotFound
		}
		span.RecordError(err)
		return "", fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("store.result", "hit"))
	return value, nil
}

// Set stores a value without TTL
func (r *RedisKVStore) Set(ctx context.Context, key, value string) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("store.key", key),
			attribute.Int("store.value_bytes", len(value)),
		),
	)
	defer span.End()

	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (r *RedisKVStore) Delete(ctx context.Context, key string) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis.Delete",
		trace.WithAttributes(attribute.String("store.key", key)),
	)
	defer span.End()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}
