package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/quotaguard/quotaguard/internal/core"
)

// InsertRequest persists one usage row through the writer path. Window keys
// are derived from RecordedAt when the record leaves them zero.
func (s *Store) InsertRequest(ctx context.Context, record core.RequestRecord) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	record.Path = strings.TrimSpace(record.Path)
	if record.Path == "" {
		return errors.New("path is required")
	}

	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	if record.MonthKey == 0 {
		record.MonthKey = core.MonthKey(record.RecordedAt)
	}
	if record.DayKey == 0 {
		record.DayKey = core.DayKey(record.RecordedAt)
	}
	if record.HourKey == 0 {
		record.HourKey = core.HourKey(record.RecordedAt)
	}

	allowed := 0
	if record.Allowed {
		allowed = 1
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.DB.ExecContext(qctx, `
		INSERT INTO rate_limiter_request
			(path, product_name, product_module, product_feature, product_tenant,
			 month, day, hour, allowed, reject_reason,
			 request_headers, request_body, response_headers, response_body, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.Path,
		nullable(record.ProductName),
		nullable(record.ProductModule),
		nullable(record.ProductFeature),
		nullable(record.ProductTenant),
		record.MonthKey,
		record.DayKey,
		record.HourKey,
		allowed,
		nullable(record.RejectReason),
		nullable(record.RequestHeaders),
		nullable(record.RequestBody),
		nullable(record.ResponseHeaders),
		nullable(record.ResponseBody),
		record.RecordedAt.Unix(),
	)
	if err != nil {
		return classify("insert usage row", err)
	}

	return nil
}

func nullable(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
