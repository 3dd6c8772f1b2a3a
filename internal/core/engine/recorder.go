package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/quotaguard/quotaguard/internal/core"
)

// RequestWriter is the writer path of the data-access collaborator.
type RequestWriter interface {
	InsertRequest(ctx context.Context, record core.RequestRecord) error
}

// Recorder persists one usage row per completed request, rejected requests
// included. It is the source the engine's counting queries read from.
type Recorder struct {
	Store  RequestWriter
	Logger *zap.Logger
}

// Record persists the request outcome. A persistence failure is returned so
// the host can log it, but it must never change the already-decided
// allow/reject response; RecordLogged exists for call sites that want the
// log-and-continue behavior inline.
func (r *Recorder) Record(ctx context.Context, record core.RequestRecord) error {
	if r == nil || r.Store == nil {
		return errors.New("recorder is not initialized")
	}
	return r.Store.InsertRequest(ctx, record)
}

// RecordLogged persists the request outcome, logging instead of propagating
// failure.
func (r *Recorder) RecordLogged(ctx context.Context, record core.RequestRecord) {
	if err := r.Record(ctx, record); err != nil {
		if r != nil && r.Logger != nil {
			r.Logger.Error("usage recording failed",
				zap.String("path", record.Path),
				zap.String("product", record.ProductName),
				zap.Error(err))
		}
	}
}
