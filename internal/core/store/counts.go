package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quotaguard/quotaguard/internal/core"
)

func windowColumn(w core.Window) string {
	switch w {
	case core.WindowHourly:
		return "hour"
	case core.WindowDaily:
		return "day"
	default:
		return "month"
	}
}

// CountRequests returns how many requests were recorded for a (path, product)
// pair in the calendar window containing now. The window key column is
// equality-indexed, so this is a single indexed lookup.
func (s *Store) CountRequests(ctx context.Context, path, productName string, window core.Window, now time.Time) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	path = strings.TrimSpace(path)
	productName = strings.TrimSpace(productName)
	if path == "" {
		return 0, errors.New("path is required")
	}
	if productName == "" {
		return 0, errors.New("product name is required")
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var count int
	row := s.DB.QueryRowContext(qctx, `
		SELECT COUNT(*)
		FROM rate_limiter_request
		WHERE `+windowColumn(window)+` = ?
		  AND path = ?
		  AND product_name = ?
	`, core.WindowKey(window, now), path, productName)

	if err := row.Scan(&count); err != nil {
		return 0, classify("count "+window.String()+" requests", err)
	}

	return count, nil
}
