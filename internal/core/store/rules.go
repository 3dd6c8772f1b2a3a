package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/quotaguard/quotaguard/internal/core"
)

// GetRule returns the stored rule for a (path, product) pair, or nil when no
// rule is configured.
func (s *Store) GetRule(ctx context.Context, path, productName string) (*core.Rule, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	path = strings.TrimSpace(path)
	productName = strings.TrimSpace(productName)
	if path == "" {
		return nil, errors.New("path is required")
	}
	if productName == "" {
		return nil, errors.New("product name is required")
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rule := core.Rule{}
	row := s.DB.QueryRowContext(qctx, `
		SELECT path, product_name, hourly_limit, daily_limit, monthly_limit
		FROM rate_limiter_rule
		WHERE path = ? AND product_name = ?
		LIMIT 1
	`, path, productName)

	err := row.Scan(&rule.Path, &rule.ProductName, &rule.HourlyLimit, &rule.DailyLimit, &rule.MonthlyLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("fetch rate limiter rule", err)
	}

	return &rule, nil
}

// UpsertRule creates or replaces the rule for a (path, product) pair.
func (s *Store) UpsertRule(ctx context.Context, rule core.Rule) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	rule.Path = strings.TrimSpace(rule.Path)
	rule.ProductName = strings.TrimSpace(rule.ProductName)
	if rule.Path == "" {
		return errors.New("path is required")
	}
	if rule.ProductName == "" {
		return errors.New("product name is required")
	}
	if rule.HourlyLimit < 0 || rule.DailyLimit < 0 || rule.MonthlyLimit < 0 {
		return errors.New("limits must be non-negative")
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.DB.ExecContext(qctx, `
		INSERT INTO rate_limiter_rule (path, product_name, hourly_limit, daily_limit, monthly_limit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path, product_name) DO UPDATE SET
			hourly_limit = excluded.hourly_limit,
			daily_limit = excluded.daily_limit,
			monthly_limit = excluded.monthly_limit
	`, rule.Path, rule.ProductName, rule.HourlyLimit, rule.DailyLimit, rule.MonthlyLimit)
	if err != nil {
		return classify("store rate limiter rule", err)
	}

	return nil
}

// DeleteRule removes the rule for a (path, product) pair. Deleting an absent
// rule is a no-op.
func (s *Store) DeleteRule(ctx context.Context, path, productName string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.DB.ExecContext(qctx, `
		DELETE FROM rate_limiter_rule WHERE path = ? AND product_name = ?
	`, strings.TrimSpace(path), strings.TrimSpace(productName))
	if err != nil {
		return classify("delete rate limiter rule", err)
	}

	return nil
}

// ListRules returns all stored rules ordered by path then product.
func (s *Store) ListRules(ctx context.Context) ([]core.Rule, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.DB.QueryContext(qctx, `
		SELECT path, product_name, hourly_limit, daily_limit, monthly_limit
		FROM rate_limiter_rule
		ORDER BY path, product_name
	`)
	if err != nil {
		return nil, classify("list rate limiter rules", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var rules []core.Rule
	for rows.Next() {
		var rule core.Rule
		if err := rows.Scan(&rule.Path, &rule.ProductName, &rule.HourlyLimit, &rule.DailyLimit, &rule.MonthlyLimit); err != nil {
			return nil, classify("scan rate limiter rule", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list rate limiter rules", err)
	}

	return rules, nil
}
