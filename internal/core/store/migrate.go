package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		plain_key TEXT NOT NULL,
		value TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache(expires_at);`,
	`CREATE TABLE IF NOT EXISTS rate_limiter_rule (
		path TEXT NOT NULL,
		product_name TEXT NOT NULL,
		hourly_limit INTEGER NOT NULL DEFAULT 0,
		daily_limit INTEGER NOT NULL DEFAULT 0,
		monthly_limit INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (path, product_name)
	);`,
	`CREATE TABLE IF NOT EXISTS rate_limiter_request (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		product_name TEXT,
		product_module TEXT,
		product_feature TEXT,
		product_tenant TEXT,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		allowed INTEGER NOT NULL DEFAULT 1,
		reject_reason TEXT,
		request_headers TEXT,
		request_body TEXT,
		response_headers TEXT,
		response_body TEXT,
		recorded_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_request_month ON rate_limiter_request(month, path, product_name);`,
	`CREATE INDEX IF NOT EXISTS idx_request_day ON rate_limiter_request(day, path, product_name);`,
	`CREATE INDEX IF NOT EXISTS idx_request_hour ON rate_limiter_request(hour, path, product_name);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
