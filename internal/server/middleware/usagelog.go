package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/quotaguard/quotaguard/internal/core"
	"github.com/quotaguard/quotaguard/internal/core/engine"
)

// UsageLog persists one usage row per completed request, exactly once,
// including the panic path where response fields are recorded empty before
// the panic is re-raised for the recovery layer. Recorder failures are logged
// and never alter the response.
func UsageLog(eng *engine.Engine, rec *engine.Recorder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if eng != nil && eng.Whitelisted(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			data, err := ExtractRequestData(r)
			if err != nil {
				logger.Error("request data extraction failed", zap.Error(err))
				// The audit trail covers every non-whitelisted request, so
				// even a request we cannot parse gets a row with whatever
				// was extracted before the failure.
				rec.RecordLogged(r.Context(), core.RequestRecord{
					Path:           data.Path,
					RequestHeaders: data.Headers,
					RequestBody:    data.Body,
					Allowed:        false,
					RejectReason:   "malformed request",
				})
				http.Error(w, "malformed request", http.StatusBadRequest)
				return
			}

			state := &decisionState{Allowed: true}
			r = r.WithContext(withRequestData(r.Context(), &data, state))

			record := core.RequestRecord{
				Path:           data.Path,
				ProductName:    data.ProductName,
				ProductModule:  data.ProductModule,
				ProductFeature: data.ProductFeature,
				ProductTenant:  data.ProductTenant,
				RequestHeaders: data.Headers,
				RequestBody:    data.Body,
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				if p := recover(); p != nil {
					// The handler never produced a response; record the
					// request with absent response fields and let the
					// recovery middleware answer the client.
					record.Allowed = state.Allowed
					record.RejectReason = state.RejectReason
					rec.RecordLogged(r.Context(), record)
					panic(p)
				}
			}()

			next.ServeHTTP(wrapped, r)

			responseHeaders, err := encodeHeaders(wrapped.Header())
			if err != nil {
				logger.Error("response header encoding failed", zap.Error(err))
			}

			record.Allowed = state.Allowed
			record.RejectReason = state.RejectReason
			record.ResponseHeaders = responseHeaders
			record.ResponseBody = wrapped.body.String()
			rec.RecordLogged(r.Context(), record)
		})
	}
}
