// Package http serves the catalog query and ingest API alongside the health,
// readiness and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
)

// Server exposes the catalog API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	registry   *catalog.Registry
	jobs       Jobs
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithJobs adds the /v1/jobs routes backed by jobs.
func WithJobs(jobs Jobs) Option {
	return func(s *Server) { s.jobs = jobs }
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1/catalogs routes. The registry answers readiness checks.
func NewServer(addr string, registry *catalog.Registry, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		registry: registry,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/catalogs", s.handleListCatalogs)
	mux.HandleFunc("GET /v1/catalogs/{provider}/files", s.handleFiles)
	mux.HandleFunc("POST /v1/catalogs/{provider}/ingest", s.handleIngest)

	if s.jobs != nil {
		mux.HandleFunc("GET /v1/jobs", s.handleListJobs)
		mux.HandleFunc("POST /v1/jobs/{provider}/run", s.handleRunJob)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.registry.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
