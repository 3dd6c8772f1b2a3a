package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "greeting", "hello", time.Minute))

	value, err := m.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", value)

	ok, err := m.Exists(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryGetAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	value, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, value)

	ok, err := m.Exists(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryRejectsNilValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	err := m.Set(ctx, "key", nil, time.Minute)
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestMemorySetReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "key", "first", time.Minute))
	require.NoError(t, m.Set(ctx, "key", "second", time.Minute))

	value, err := m.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "second", value)
	require.Equal(t, 1, m.Len())
}

func TestMemoryRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, m.Remove(ctx, "key"))
	require.NoError(t, m.Remove(ctx, "key"))

	value, err := m.Get(ctx, "key")
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := NewMemory(10, WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "key", "value", 30*time.Second))

	value, err := m.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "value", value)

	clock.Advance(31 * time.Second)

	value, err = m.Get(ctx, "key")
	require.NoError(t, err)
	require.Nil(t, value)

	// The expired entry was removed as a side effect of the lookup.
	require.Equal(t, 0, m.Len())
}

func TestMemoryDefaultTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := NewMemory(10, WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "key", "value", 0))

	clock.Advance(DefaultTTL - time.Second)
	ok, err := m.Exists(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(2 * time.Second)
	ok, err = m.Exists(ctx, "key")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCapacitySweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := NewMemory(4, WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "short-1", "v", 10*time.Second))
	require.NoError(t, m.Set(ctx, "short-2", "v", 10*time.Second))
	require.NoError(t, m.Set(ctx, "long-1", "v", time.Hour))
	require.NoError(t, m.Set(ctx, "long-2", "v", time.Hour))
	require.Equal(t, 4, m.Len())

	clock.Advance(11 * time.Second)

	// At capacity: the insert sweeps the two expired entries and proceeds.
	require.NoError(t, m.Set(ctx, "fresh", "v", time.Hour))
	require.Equal(t, 3, m.Len())

	for _, key := range []string{"long-1", "long-2", "fresh"} {
		ok, err := m.Exists(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, "expected %s to survive the sweep", key)
	}
}

func TestMemorySweepFreeingNothingStillInserts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	require.NoError(t, m.Set(ctx, "a", "v", time.Hour))
	require.NoError(t, m.Set(ctx, "b", "v", time.Hour))
	require.NoError(t, m.Set(ctx, "c", "v", time.Hour))

	// Nothing was expired, so the map grows past maxSize.
	require.Equal(t, 3, m.Len())
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "a", "v", time.Minute))
	require.NoError(t, m.Set(ctx, "b", "v", time.Minute))
	require.NoError(t, m.Clear(ctx))
	require.Equal(t, 0, m.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("w%d-k%d", worker, j%10)
				_ = m.Set(ctx, key, j, time.Minute)
				_, _ = m.Get(ctx, key)
				if j%7 == 0 {
					_ = m.Remove(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()
}
