package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxSize bounds a Memory cache when no size is configured.
const DefaultMaxSize = 1000

// Memory is an in-process cache backed by a map. It is safe for concurrent
// use by multiple goroutines.
//
// Capacity is enforced by an amortized batch sweep, not by eviction order:
// when a new key arrives while the map is at or above maxSize, every expired
// entry is removed before the insert. The insert proceeds even if the sweep
// freed nothing, so maxSize is a growth trigger rather than a hard ceiling.
// Sustained churn of new keys with long TTLs can therefore grow the map past
// maxSize until their entries expire.
type Memory struct {
	mu      sync.Mutex
	items   map[string]Item
	maxSize int

	// Clock is used for expiry decisions. Defaults to time.Now.
	clock func() time.Time
}

var _ Cache = (*Memory)(nil)

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMemory creates an in-process cache holding up to maxSize entries before
// expiry sweeps kick in. maxSize <= 0 selects DefaultMaxSize.
func NewMemory(maxSize int, opts ...MemoryOption) *Memory {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	m := &Memory{
		items:   make(map[string]Item),
		maxSize: maxSize,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set stores value under key. A nil value is rejected with ErrInvalidValue.
func (m *Memory) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if value == nil {
		return ErrInvalidValue
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	_, replacing := m.items[key]
	if !replacing && len(m.items) >= m.maxSize {
		m.sweepLocked(now)
	}

	m.items[key] = Item{
		Value:     value,
		ExpiresAt: now.Add(effectiveTTL(ttl)).Unix(),
	}
	memorySizeMetric.Set(float64(len(m.items)))
	return nil
}

// Get returns the value for key, deleting the entry if it has expired.
func (m *Memory) Get(ctx context.Context, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		memoryAccessMetric.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if !item.Valid(m.clock()) {
		delete(m.items, key)
		memorySizeMetric.Set(float64(len(m.items)))
		memoryAccessMetric.WithLabelValues("miss").Inc()
		return nil, nil
	}
	memoryAccessMetric.WithLabelValues("hit").Inc()
	return item.Value, nil
}

// Exists reports whether key holds a valid entry, with the same lazy cleanup
// as Get.
func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	value, err := m.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// Remove deletes the entry for key if present.
func (m *Memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	memorySizeMetric.Set(float64(len(m.items)))
	return nil
}

// Clear removes all entries.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]Item)
	memorySizeMetric.Set(0)
	return nil
}

// Len returns the current entry count, expired entries included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// sweepLocked removes all entries whose expiry has passed. Callers hold m.mu.
func (m *Memory) sweepLocked(now time.Time) {
	for key, item := range m.items {
		if !item.Valid(now) {
			delete(m.items, key)
		}
	}
	memorySizeMetric.Set(float64(len(m.items)))
}
