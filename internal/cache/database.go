package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Database is a cache backed by the relational store's cache table.
//
// Keys are hashed before storage so the index stays fixed-width; the plain
// key is kept alongside for debugging. Expired rows are removed on read, and
// CleanupExpired exists for an external scheduler to bulk-delete the rest.
type Database struct {
	db    *sql.DB
	clock func() time.Time
}

var _ Cache = (*Database)(nil)

// DatabaseOption configures a Database cache.
type DatabaseOption func(*Database)

// WithDatabaseClock overrides the time source, mainly for tests.
func WithDatabaseClock(clock func() time.Time) DatabaseOption {
	return func(d *Database) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// NewDatabase creates a cache over db. The cache table must exist (see the
// store migration).
func NewDatabase(db *sql.DB, opts ...DatabaseOption) *Database {
	d := &Database{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// hashKey returns the hex SHA-256 digest used as the indexed storage key.
func hashKey(key string) string {
	digest := sha256.Sum256([]byte(key))
	return hex.EncodeToString(digest[:])
}

// Set upserts the entry for key, replacing value and expiry and touching
// updated_at on conflict.
func (d *Database) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if d == nil || d.db == nil {
		return errors.New("database cache is not initialized")
	}
	if value == nil {
		return ErrInvalidValue
	}

	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	now := d.clock().UTC()
	expiresAt := now.Add(effectiveTTL(ttl)).Unix()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO cache (key, plain_key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, hashKey(key), key, encoded, expiresAt, now.Unix())
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}

	return nil
}

// Get returns the value for key, or nil when absent. A row past its expiry is
// deleted as part of the same call before returning absent.
func (d *Database) Get(ctx context.Context, key string) (any, error) {
	if d == nil || d.db == nil {
		return nil, errors.New("database cache is not initialized")
	}

	var (
		raw       string
		expiresAt int64
	)
	row := d.db.QueryRowContext(ctx, `
		SELECT value, expires_at
		FROM cache
		WHERE key = ?
		LIMIT 1
	`, hashKey(key))
	if err := row.Scan(&raw, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cache entry: %w", err)
	}

	if d.clock().Unix() >= expiresAt {
		if err := d.Remove(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return decodeValue(raw), nil
}

// Exists reports whether key holds a non-expired row.
func (d *Database) Exists(ctx context.Context, key string) (bool, error) {
	if d == nil || d.db == nil {
		return false, errors.New("database cache is not initialized")
	}

	var one int
	row := d.db.QueryRowContext(ctx, `
		SELECT 1
		FROM cache
		WHERE key = ? AND expires_at > ?
		LIMIT 1
	`, hashKey(key), d.clock().Unix())
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check cache entry: %w", err)
	}

	return true, nil
}

// Remove deletes the row for key if present.
func (d *Database) Remove(ctx context.Context, key string) error {
	if d == nil || d.db == nil {
		return errors.New("database cache is not initialized")
	}

	if _, err := d.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, hashKey(key)); err != nil {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}

// Clear removes every row from the cache table.
func (d *Database) Clear(ctx context.Context) error {
	if d == nil || d.db == nil {
		return errors.New("database cache is not initialized")
	}

	if _, err := d.db.ExecContext(ctx, `DELETE FROM cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// CleanupExpired bulk-deletes all expired rows and returns how many were
// removed. Intended for a periodic external scheduler, not for the cache's
// own read path.
func (d *Database) CleanupExpired(ctx context.Context) (int64, error) {
	if d == nil || d.db == nil {
		return 0, errors.New("database cache is not initialized")
	}

	res, err := d.db.ExecContext(ctx, `DELETE FROM cache WHERE expires_at <= ?`, d.clock().Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired cache entries: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count removed cache entries: %w", err)
	}
	return removed, nil
}
