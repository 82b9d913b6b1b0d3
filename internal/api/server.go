package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/generate"
	"github.com/dgallion1/docfill/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docfill.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	claude       *generate.ClaudeClient // nil when generation is disabled
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, claude *generate.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		orchestrator: orch,
		claude:       claude,
		log:          log,
		cfg:          cfg,
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
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/analyze/batch", s.handleBatchAnalyze)

		r.Post("/api/fill", s.handleFill)
		r.Get("/api/fill/{jobID}/status", s.handleFillStatus)
		r.Get("/api/fill/{jobID}/result", s.handleFillResult)

		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/templates", s.handleListTemplates)
		r.Get("/api/templates/{hash}", s.handleGetTemplate)
		r.Delete("/api/templates/{hash}", s.handleDeleteTemplate)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
		"generation":  s.claude != nil,
		"archive":     s.orchestrator.Archive() != nil,
	})
}
