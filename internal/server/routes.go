package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quotaguard/quotaguard/internal/server/handlers"
)

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(deps Deps) {
	if deps.Health != nil {
		s.router.Get("/health", deps.Health.Handler)
	}
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/version", handlers.VersionHandler(deps.Version))

	if deps.Registry != nil {
		s.router.Get("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	// Placeholder upstream endpoint: deployments mount their own handlers
	// here; everything registered below the middleware chain is quota
	// checked and usage logged.
	s.router.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}
