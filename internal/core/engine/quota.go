// Package engine implements the multi-window quota decision procedure and
// the usage recorder that feeds its counting queries.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quotaguard/quotaguard/internal/cache"
	"github.com/quotaguard/quotaguard/internal/core"
)

// RuleSource is the data-access surface the engine reads through.
type RuleSource interface {
	GetRule(ctx context.Context, path, productName string) (*core.Rule, error)
	CountRequests(ctx context.Context, path, productName string, window core.Window, now time.Time) (int, error)
}

// Decision is the outcome of a capacity check.
type Decision struct {
	Allowed bool

	// Reason is nil when allowed. When rejected it is
	// core.ErrRuleNotConfigured or a *core.QuotaExceededError naming the
	// window that tripped first.
	Reason error
}

// Engine enforces hourly/daily/monthly request ceilings per (path, product)
// pair. Rule and count lookups go read-through a short-TTL in-process cache
// purely to reduce store load; a stale read within that TTL is an accepted
// trade-off, never a correctness requirement.
type Engine struct {
	// Store is the data-access collaborator. Required.
	Store RuleSource

	// Cache is the short-lived read-through cache in front of Store,
	// normally the in-process backend. Optional; nil disables caching.
	Cache cache.Cache

	// Whitelist lists paths that bypass capacity checks entirely.
	Whitelist []string

	// CacheTTL bounds how long rule and count lookups stay cached.
	// Defaults to cache.DefaultTTL. Independent of, and much shorter than,
	// the calendar windows themselves.
	CacheTTL time.Duration

	// Clock is used for window-key derivation. Defaults to time.Now.
	Clock func() time.Time

	Logger *zap.Logger
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Engine) ttl() time.Duration {
	if e.CacheTTL > 0 {
		return e.CacheTTL
	}
	return cache.DefaultTTL
}

// Whitelisted reports whether path bypasses quota checks and usage recording.
func (e *Engine) Whitelisted(path string) bool {
	for _, p := range e.Whitelist {
		if p == path {
			return true
		}
	}
	return false
}

// CheckCapacity decides whether a request for (path, product) may proceed.
//
// Rule and count lookups run concurrently and are jointly awaited; a failure
// of either cancels the other and surfaces as the returned error, so the
// caller fails closed on store trouble. A rejection is not an error: it comes
// back as an unallowed Decision carrying the reason.
func (e *Engine) CheckCapacity(ctx context.Context, path, productName string) (Decision, error) {
	if e.Whitelisted(path) {
		return Decision{Allowed: true}, nil
	}

	var (
		rule  *core.Rule
		count *core.RequestCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rule, err = e.fetchRule(gctx, path, productName)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = e.fetchCount(gctx, path, productName)
		return err
	})
	if err := g.Wait(); err != nil {
		return Decision{}, err
	}

	if rule == nil {
		return Decision{Reason: fmt.Errorf("%w for: %s - %s", core.ErrRuleNotConfigured, path, productName)}, nil
	}

	// No usage recorded yet for this pair: first request always passes.
	if count == nil {
		return Decision{Allowed: true}, nil
	}

	// Evaluation order is fixed (monthly, daily, hourly) so the reported
	// window is reproducible when several ceilings trip at once.
	if count.MonthlyCount >= rule.MonthlyLimit {
		return Decision{Reason: &core.QuotaExceededError{
			Window: core.WindowMonthly, Path: path, ProductName: productName,
			Count: count.MonthlyCount, Limit: rule.MonthlyLimit,
		}}, nil
	}
	if count.DailyCount >= rule.DailyLimit {
		return Decision{Reason: &core.QuotaExceededError{
			Window: core.WindowDaily, Path: path, ProductName: productName,
			Count: count.DailyCount, Limit: rule.DailyLimit,
		}}, nil
	}
	if count.HourlyCount >= rule.HourlyLimit {
		return Decision{Reason: &core.QuotaExceededError{
			Window: core.WindowHourly, Path: path, ProductName: productName,
			Count: count.HourlyCount, Limit: rule.HourlyLimit,
		}}, nil
	}

	return Decision{Allowed: true}, nil
}

func (e *Engine) fetchRule(ctx context.Context, path, productName string) (*core.Rule, error) {
	key := "rule:" + path + ":" + productName
	return cachedFetch(ctx, e, key, func(ctx context.Context) (*core.Rule, error) {
		return e.Store.GetRule(ctx, path, productName)
	})
}

func (e *Engine) fetchCount(ctx context.Context, path, productName string) (*core.RequestCount, error) {
	key := "count:" + path + ":" + productName
	return cachedFetch(ctx, e, key, func(ctx context.Context) (*core.RequestCount, error) {
		now := e.now()

		var monthly, daily, hourly int
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			monthly, err = e.Store.CountRequests(gctx, path, productName, core.WindowMonthly, now)
			return err
		})
		g.Go(func() error {
			var err error
			daily, err = e.Store.CountRequests(gctx, path, productName, core.WindowDaily, now)
			return err
		})
		g.Go(func() error {
			var err error
			hourly, err = e.Store.CountRequests(gctx, path, productName, core.WindowHourly, now)
			return err
		})
		if err := g.Wait(); err != nil {
			// Pool exhaustion and friends must surface as retryable
			// failures, never as a zero count.
			return nil, err
		}

		return &core.RequestCount{
			Path:         path,
			ProductName:  productName,
			MonthlyCount: monthly,
			DailyCount:   daily,
			HourlyCount:  hourly,
		}, nil
	})
}

// cachedFetch wraps any fetch function with opportunistic read-through
// caching. Cache trouble never fails the fetch; a nil fetch result is not
// cached (nil is the absent sentinel).
func cachedFetch[T any](ctx context.Context, e *Engine, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	if e.Cache != nil {
		cached, err := e.Cache.Get(ctx, key)
		if err != nil && e.Logger != nil {
			e.Logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		if value, ok := cached.(*T); ok {
			return value, nil
		}
		// Text-backed backends hand values back as generically decoded
		// JSON; rebuild the typed value from that before giving up on
		// the cache.
		if cached != nil {
			if value, ok := recodeCached[T](cached); ok {
				return value, nil
			}
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if value != nil && e.Cache != nil {
		if err := e.Cache.Set(ctx, key, value, e.ttl()); err != nil && e.Logger != nil {
			e.Logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return value, nil
}

// recodeCached converts a generically decoded cache payload (map[string]any
// and friends) back into the typed value it was stored as. A payload that does
// not fit T counts as a miss.
func recodeCached[T any](cached any) (*T, bool) {
	raw, err := json.Marshal(cached)
	if err != nil {
		return nil, false
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false
	}
	return &value, true
}
