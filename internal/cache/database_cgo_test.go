//go:build cgo

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quotaguard/quotaguard/internal/config"
	"github.com/quotaguard/quotaguard/internal/core/store"
)

func openTestDatabase(t *testing.T, clock *fakeClock) *Database {
	t.Helper()

	ctx := context.Background()
	db, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	require.NoError(t, db.Migrate(ctx))
	return NewDatabase(db.DB, WithDatabaseClock(clock.Now))
}

func TestDatabaseSetGet(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	require.NoError(t, d.Set(ctx, "greeting", "hello", time.Minute))

	value, err := d.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", value)

	ok, err := d.Exists(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDatabaseGetAbsent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	value, err := d.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestDatabaseRejectsNilValue(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	require.ErrorIs(t, d.Set(ctx, "key", nil, time.Minute), ErrInvalidValue)
}

func TestDatabaseExpiredRowRemovedOnRead(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	require.NoError(t, d.Set(ctx, "key", "value", 30*time.Second))
	clock.Advance(31 * time.Second)

	value, err := d.Get(ctx, "key")
	require.NoError(t, err)
	require.Nil(t, value)

	// The row is gone, not just filtered.
	var rows int
	require.NoError(t, d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache`).Scan(&rows))
	require.Zero(t, rows)
}

func TestDatabaseUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	require.NoError(t, d.Set(ctx, "key", "first", time.Minute))
	require.NoError(t, d.Set(ctx, "key", "second", time.Minute))

	value, err := d.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "second", value)
}

func TestDatabaseStructRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	require.NoError(t, d.Set(ctx, "rule", map[string]any{"hourly_limit": 5}, time.Minute))

	value, err := d.Get(ctx, "rule")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"hourly_limit": float64(5)}, value)
}

func TestDatabaseRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	require.NoError(t, d.Set(ctx, "a", "v", time.Minute))
	require.NoError(t, d.Set(ctx, "b", "v", time.Minute))

	require.NoError(t, d.Remove(ctx, "a"))
	require.NoError(t, d.Remove(ctx, "a"))

	ok, err := d.Exists(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, d.Clear(ctx))
	ok, err = d.Exists(ctx, "b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseCleanupExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d := openTestDatabase(t, clock)

	require.NoError(t, d.Set(ctx, "short-1", "v", 10*time.Second))
	require.NoError(t, d.Set(ctx, "short-2", "v", 10*time.Second))
	require.NoError(t, d.Set(ctx, "long", "v", time.Hour))

	clock.Advance(time.Minute)

	removed, err := d.CleanupExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	ok, err := d.Exists(ctx, "long")
	require.NoError(t, err)
	require.True(t, ok)
}
