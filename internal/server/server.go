// Package server hosts the HTTP surface: health/version/metrics endpoints
// and the quota + usage-recording middleware chain around the proxied
// handlers.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/quotaguard/quotaguard/internal/config"
	"github.com/quotaguard/quotaguard/internal/core/engine"
	"github.com/quotaguard/quotaguard/internal/server/handlers"
	servermw "github.com/quotaguard/quotaguard/internal/server/middleware"
)

// Deps are the collaborators the server receives at construction time.
// Lifecycle of each (store connections, redis clients, loggers) is owned by
// the caller.
type Deps struct {
	Engine   *engine.Engine
	Recorder *engine.Recorder
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Health   *handlers.HealthManager
	Version  handlers.VersionInfo
}

// Server represents the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	logger *zap.Logger
}

// New creates a new HTTP server instance.
func New(cfg config.ServerConfig, deps Deps) *Server {
	r := chi.NewRouter()

	// Middleware order matters: request ID first for correlation, recovery
	// outside the usage log so a re-raised panic still reaches a handler,
	// quota innermost so rejected requests are recorded by the usage log.
	r.Use(chimw.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestLogger(deps.Logger))
	r.Use(servermw.Recovery(deps.Logger))
	r.Use(servermw.UsageLog(deps.Engine, deps.Recorder, deps.Logger))
	r.Use(servermw.Quota(deps.Engine, deps.Logger))

	s := &Server{
		router: r,
		cfg:    cfg,
		logger: deps.Logger,
	}
	s.registerRoutes(deps)

	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.logger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation.
func (s *Server) Handler() http.Handler {
	return s.router
}
