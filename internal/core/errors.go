package core

import (
	"errors"
	"fmt"
)

// ErrRuleNotConfigured rejects requests for (path, product) pairs without a
// stored rule. An unconfigured pair fails closed.
var ErrRuleNotConfigured = errors.New("no rate limiter rule configured")

// ErrStoreTimeout marks a backing-store timeout. It is propagated unchanged
// so the host can decide between retrying and failing the request.
var ErrStoreTimeout = errors.New("backing store timeout")

// QuotaExceededError reports which calendar window tripped first. Windows are
// evaluated monthly, then daily, then hourly, so the reported window is stable
// when several ceilings are exceeded at once.
type QuotaExceededError struct {
	Window      Window
	Path        string
	ProductName string
	Count       int
	Limit       int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s limit exceeded for %s - %s: %d/%d",
		e.Window, e.Path, e.ProductName, e.Count, e.Limit)
}

// IsQuotaExceeded reports whether err is a quota rejection and returns the
// tripped window when it is.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
