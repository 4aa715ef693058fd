// Package api exposes batch extraction over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"filingest/internal/config"
	"filingest/internal/extract"
	"filingest/internal/pipeline"
	"filingest/internal/secquery"
)

// Server is the HTTP API server for filingest.
type Server struct {
	router  chi.Router
	proc    pipeline.Processor
	sec     *secquery.Client
	batches *pipeline.BatchStore
	stats   *extract.LLMStats
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(proc pipeline.Processor, sec *secquery.Client, batches *pipeline.BatchStore, stats *extract.LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		proc:    proc,
		sec:     sec,
		batches: batches,
		stats:   stats,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.FilingestAPIKey, s.log))

		r.Post("/api/batches", s.handleCreateBatch)
		r.Get("/api/batches/{batchID}", s.handleBatchStatus)
		r.Get("/api/batches/{batchID}/report", s.handleBatchReport)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
