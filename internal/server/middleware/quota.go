package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/quotaguard/quotaguard/internal/core"
	"github.com/quotaguard/quotaguard/internal/core/engine"
	"github.com/quotaguard/quotaguard/internal/observability"
)

type requestDataContextKey struct{}

type decisionContextKey struct{}

// decisionState lets the inner quota middleware report the outcome to the
// outer usage-log middleware through a shared pointer.
type decisionState struct {
	Allowed      bool
	RejectReason string
}

// requestDataFromContext returns the extracted request data placed in the
// context by an outer middleware, or extracts it directly.
func requestDataFromContext(r *http.Request) (RequestData, error) {
	if data, ok := r.Context().Value(requestDataContextKey{}).(*RequestData); ok {
		return *data, nil
	}
	return ExtractRequestData(r)
}

// rejectionResponse is the 429 body returned for rejected requests.
type rejectionResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	RequestID string `json:"request_id,omitempty"`
}

// Quota enforces request ceilings before the handler runs. Whitelisted paths
// pass straight through. Backing-store trouble fails closed with 503; the
// decision itself is never guessed.
func Quota(eng *engine.Engine, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if eng == nil || eng.Whitelisted(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			data, err := requestDataFromContext(r)
			if err != nil {
				observability.QuotaDecisions.WithLabelValues("error").Inc()
				http.Error(w, "malformed request", http.StatusBadRequest)
				return
			}

			decision, err := eng.CheckCapacity(r.Context(), data.Path, data.ProductName)
			if err != nil {
				observability.QuotaDecisions.WithLabelValues("error").Inc()
				logger.Error("capacity check failed",
					zap.String("path", data.Path),
					zap.String("product", data.ProductName),
					zap.Bool("retryable", errors.Is(err, core.ErrStoreTimeout)),
					zap.Error(err))
				http.Error(w, "capacity check unavailable", http.StatusServiceUnavailable)
				return
			}

			if !decision.Allowed {
				observability.QuotaDecisions.WithLabelValues("reject").Inc()
				reason := "rejected"
				if decision.Reason != nil {
					reason = decision.Reason.Error()
				}
				if state, ok := r.Context().Value(decisionContextKey{}).(*decisionState); ok {
					state.Allowed = false
					state.RejectReason = reason
				}
				logger.Warn("request rejected",
					zap.String("path", data.Path),
					zap.String("product", data.ProductName),
					zap.String("reason", reason))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(rejectionResponse{
					Error:     "rate limit exceeded",
					Reason:    reason,
					RequestID: GetRequestID(r.Context()),
				})
				return
			}

			observability.QuotaDecisions.WithLabelValues("allow").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// withRequestData stashes data and a fresh decision state in the context so
// the quota and usage-log middlewares share one extraction and one outcome.
func withRequestData(ctx context.Context, data *RequestData, state *decisionState) context.Context {
	ctx = context.WithValue(ctx, requestDataContextKey{}, data)
	return context.WithValue(ctx, decisionContextKey{}, state)
}
