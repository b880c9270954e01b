// Package httpapi is the HTTP trigger surface spec.md §6 describes: a
// scheduler-facing shell around the core operations, not part of the core
// itself. Two deployment shapes share this server: an ingestion-service
// instance (SOURCE_NAME set, only /ingest meaningful) and the dedup-service
// instance (SOURCE_NAME unset, only /deduplicate meaningful); both expose
// /health, /, /healthz, /readyz, and /metrics uniformly.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// IngestRunner runs one source's ingestion pipeline on demand.
type IngestRunner interface {
	RunIngest(ctx context.Context, sourceName string) (RunResult, error)
}

// DedupRunner runs one dedup pass on demand.
type DedupRunner interface {
	RunDedup(ctx context.Context) (RunResult, error)
}

// RunResult is the JSON shape both POST /ingest and POST /deduplicate
// return on success, per spec.md §6.
type RunResult struct {
	RunID       string  `json:"run_id"`
	Source      string  `json:"source,omitempty"`
	RawEvents   int     `json:"raw_events,omitempty"`
	DeadLetters int     `json:"dead_letters,omitempty"`
	Clusters    int     `json:"clusters,omitempty"`
	DurationS   float64 `json:"duration_s"`
}

// Server exposes the scheduler-facing trigger endpoints plus the usual
// health/readiness/metrics surface.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	sourceName string
}

// Config bundles what NewServer needs beyond addr and logger.
type Config struct {
	Addr       string
	SourceName string // empty selects dedup-service mode
	Ready      ReadinessChecker
	Ingest     IngestRunner // required in ingestion-service mode
	Dedup      DedupRunner  // required in dedup-service mode
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:     logger,
		sourceName: cfg.SourceName,
	}

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(cfg.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.Ingest != nil {
		mux.HandleFunc("POST /ingest", s.handleIngest(cfg.Ingest))
	}
	if cfg.Dedup != nil {
		mux.HandleFunc("POST /deduplicate", s.handleDedup(cfg.Dedup))
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "quakestream",
		"mode":    modeName(s.sourceName),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok", "mode": modeName(s.sourceName)}
	if s.sourceName != "" {
		body["source"] = s.sourceName
	}
	writeJSON(w, http.StatusOK, body)
}

func modeName(sourceName string) string {
	if sourceName == "" {
		return "dedup"
	}
	return "ingest"
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleIngest(runner IngestRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := runner.RunIngest(r.Context(), s.sourceName)
		if err != nil {
			s.logger.Error("ingest run failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleDedup(runner DedupRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := runner.RunDedup(r.Context())
		if err != nil {
			s.logger.Error("dedup run failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
