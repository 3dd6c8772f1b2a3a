package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLMissing and TTLNoExpiry are the sentinel results of Redis.TTL, mirroring
// the underlying store's protocol.
const (
	TTLMissing  = -2 * time.Second
	TTLNoExpiry = -1 * time.Second
)

// Redis is a cache over a remote key-value store with native expiring keys.
// The store enforces TTL itself, so there is no client-side expiry tracking.
//
// All keys are namespaced under a prefix so several logical caches can share
// one physical store. Beyond the base contract it exposes the atomic
// primitives (SetNX, Increment/Decrement) that the in-process and database
// backends cannot provide: these are the only operations here with
// cross-process consistency guarantees.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Cache = (*Redis)(nil)

// NewRedis creates a cache over client. An empty prefix defaults to "cache:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "cache:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Set stores value with a store-side expiry.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if value == nil {
		return ErrInvalidValue
	}

	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(key), encoded, effectiveTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("store redis entry: %w", err)
	}
	return nil
}

// Get returns the value for key, or nil when the store no longer holds it.
func (r *Redis) Get(ctx context.Context, key string) (any, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch redis entry: %w", err)
	}
	return decodeValue(raw), nil
}

// Exists reports whether the store still holds key.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check redis entry: %w", err)
	}
	return n > 0, nil
}

// Remove deletes the entry for key if present.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("remove redis entry: %w", err)
	}
	return nil
}

// Clear deletes every key under this cache's prefix with an incremental
// SCAN+DEL loop. A blanket flush would destroy other namespaces sharing the
// store, so it is never used. The loop terminates when the cursor returns
// to zero.
func (r *Redis) Clear(ctx context.Context) error {
	pattern := r.prefix + "*"
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan redis keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete redis keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// TTL returns the remaining time-to-live for key. TTLMissing means the key
// does not exist; TTLNoExpiry means it has no expiry set.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("fetch redis ttl: %w", err)
	}
	return ttl, nil
}

// SetNX stores value only when key does not already exist, returning true iff
// this call created the key. This is the building block for distributed
// mutual-exclusion locks.
func (r *Redis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if value == nil {
		return false, ErrInvalidValue
	}

	encoded, err := encodeValue(value)
	if err != nil {
		return false, err
	}

	created, err := r.client.SetNX(ctx, r.key(key), encoded, effectiveTTL(ttl)).Result()
	if err != nil {
		return false, fmt.Errorf("setnx redis entry: %w", err)
	}
	return created, nil
}

// Increment atomically adds amount to the counter at key, initializing it to
// zero first when absent, and returns the new value.
func (r *Redis) Increment(ctx context.Context, key string, amount int64) (int64, error) {
	value, err := r.client.IncrBy(ctx, r.key(key), amount).Result()
	if err != nil {
		return 0, fmt.Errorf("increment redis counter: %w", err)
	}
	return value, nil
}

// Decrement atomically subtracts amount from the counter at key and returns
// the new value.
func (r *Redis) Decrement(ctx context.Context, key string, amount int64) (int64, error) {
	value, err := r.client.DecrBy(ctx, r.key(key), amount).Result()
	if err != nil {
		return 0, fmt.Errorf("decrement redis counter: %w", err)
	}
	return value, nil
}
