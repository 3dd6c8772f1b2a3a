// Package cache provides a TTL cache contract with three interchangeable
// backends: an in-process map (Memory), a relational store (Database) and a
// remote key-value store (Redis). Callers depend on the Cache interface and
// pick a backend at construction time.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is applied when a Set call passes a non-positive TTL.
const DefaultTTL = 300 * time.Second

// ErrInvalidValue rejects attempts to store a nil value. Nil doubles as the
// absent sentinel on Get, so it can never be a stored value.
var ErrInvalidValue = errors.New("cache: value cannot be nil")

// Cache is the contract all backends satisfy.
//
// Get and Exists never return a logically expired entry; backends that track
// expiry client-side delete the expired entry as a side effect of the lookup.
// Clear is scoped to the entries owned by the cache instance, not to the
// physical store it may share with others.
type Cache interface {
	// Get returns the stored value, or nil when the key is absent or expired.
	Get(ctx context.Context, key string) (any, error)

	// Set stores value with an absolute expiry of now + ttl, unconditionally
	// replacing any existing entry. ttl <= 0 selects DefaultTTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Remove deletes the entry if present. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error

	// Exists reports whether a valid (non-expired) entry is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes every entry owned by this cache instance.
	Clear(ctx context.Context) error
}

// Item is a cached value with its absolute expiry timestamp in unix seconds.
type Item struct {
	Value     any
	ExpiresAt int64
}

// Valid reports whether the item has a value and has not expired at now.
func (i Item) Valid(now time.Time) bool {
	return i.Value != nil && now.Unix() < i.ExpiresAt
}

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
