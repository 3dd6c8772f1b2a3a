//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quotaguard/quotaguard/internal/config"
	"github.com/quotaguard/quotaguard/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestOpenMemoryStore(t *testing.T) {
	db := openTestStore(t)
	require.Equal(t, "libsql", db.Driver())
}

func TestRuleRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)

	rule := core.Rule{
		Path: "/v1/search", ProductName: "acme",
		HourlyLimit: 10, DailyLimit: 100, MonthlyLimit: 1000,
	}
	require.NoError(t, db.UpsertRule(ctx, rule))

	got, err := db.GetRule(ctx, "/v1/search", "acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, rule, *got)

	// Upsert replaces in place.
	rule.HourlyLimit = 20
	require.NoError(t, db.UpsertRule(ctx, rule))

	got, err = db.GetRule(ctx, "/v1/search", "acme")
	require.NoError(t, err)
	require.Equal(t, 20, got.HourlyLimit)

	rules, err := db.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
}

func TestGetRuleAbsent(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)

	got, err := db.GetRule(ctx, "/v1/unknown", "acme")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDeleteRule(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)

	require.NoError(t, db.UpsertRule(ctx, core.Rule{
		Path: "/v1/search", ProductName: "acme",
		HourlyLimit: 1, DailyLimit: 1, MonthlyLimit: 1,
	}))
	require.NoError(t, db.DeleteRule(ctx, "/v1/search", "acme"))

	got, err := db.GetRule(ctx, "/v1/search", "acme")
	require.NoError(t, err)
	require.Nil(t, got)

	// Deleting again is a no-op.
	require.NoError(t, db.DeleteRule(ctx, "/v1/search", "acme"))
}

func TestCountRequestsPerWindow(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)

	now := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	insert := func(at time.Time, allowed bool) {
		require.NoError(t, db.InsertRequest(ctx, core.RequestRecord{
			Path:        "/v1/search",
			ProductName: "acme",
			Allowed:     allowed,
			RecordedAt:  at,
		}))
	}

	insert(now, true)
	insert(now.Add(-10*time.Minute), true)
	insert(now.Add(-2*time.Hour), false) // same day, different hour
	insert(now.Add(-48*time.Hour), true) // same month, different day
	insert(now.AddDate(0, -1, 0), true)  // previous month

	hourly, err := db.CountRequests(ctx, "/v1/search", "acme", core.WindowHourly, now)
	require.NoError(t, err)
	require.Equal(t, 2, hourly)

	daily, err := db.CountRequests(ctx, "/v1/search", "acme", core.WindowDaily, now)
	require.NoError(t, err)
	require.Equal(t, 3, daily)

	monthly, err := db.CountRequests(ctx, "/v1/search", "acme", core.WindowMonthly, now)
	require.NoError(t, err)
	require.Equal(t, 4, monthly)
}

func TestCountRequestsRejectedRowsCount(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	require.NoError(t, db.InsertRequest(ctx, core.RequestRecord{
		Path: "/v1/search", ProductName: "acme",
		Allowed: false, RejectReason: "hourly limit exceeded",
		RecordedAt: now,
	}))

	hourly, err := db.CountRequests(ctx, "/v1/search", "acme", core.WindowHourly, now)
	require.NoError(t, err)
	require.Equal(t, 1, hourly)
}

func TestCountRequestsScopedToPair(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	require.NoError(t, db.InsertRequest(ctx, core.RequestRecord{
		Path: "/v1/search", ProductName: "acme", Allowed: true, RecordedAt: now,
	}))
	require.NoError(t, db.InsertRequest(ctx, core.RequestRecord{
		Path: "/v1/search", ProductName: "other", Allowed: true, RecordedAt: now,
	}))
	require.NoError(t, db.InsertRequest(ctx, core.RequestRecord{
		Path: "/v1/lookup", ProductName: "acme", Allowed: true, RecordedAt: now,
	}))

	count, err := db.CountRequests(ctx, "/v1/search", "acme", core.WindowHourly, now)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestInsertRequestDerivesWindowKeys(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)

	at := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	require.NoError(t, db.InsertRequest(ctx, core.RequestRecord{
		Path: "/v1/search", ProductName: "acme", Allowed: true, RecordedAt: at,
	}))

	var month, day, hour int
	row := db.DB.QueryRowContext(ctx, `SELECT month, day, hour FROM rate_limiter_request LIMIT 1`)
	require.NoError(t, row.Scan(&month, &day, &hour))
	require.Equal(t, core.MonthKey(at), month)
	require.Equal(t, core.DayKey(at), day)
	require.Equal(t, core.HourKey(at), hour)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	require.NoError(t, db.Migrate(ctx))
}
