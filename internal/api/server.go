package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dgallion1/skelgen/internal/config"
	"github.com/dgallion1/skelgen/internal/metrics"
	"github.com/dgallion1/skelgen/internal/parser"
	"github.com/dgallion1/skelgen/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for skelgen.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	recorder     *metrics.Recorder
	log          *slog.Logger
	cfg          config.Config

	parserOpts parser.Options
	// renderSalt ties cached renders to the transformer settings.
	renderSalt string
}

// NewServer creates and configures the HTTP server. rec may be nil, which
// disables /metrics and the stats endpoint.
func NewServer(orch *pipeline.Orchestrator, rec *metrics.Recorder, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		recorder:     rec,
		log:          log,
		cfg:          cfg,
		parserOpts:   parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}

	t := orch.Transformer()
	var styles bytes.Buffer
	if err := t.Styles().Encode(&styles, t.CenterMarker()); err != nil {
		log.Warn("style table encode failed", "error", err)
	}
	s.renderSalt = pipeline.ContentHashHex(fmt.Appendf(styles.Bytes(), "|%t|%d", cfg.CollapseText, cfg.MaxDepth))[:16]

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
	if s.recorder != nil {
		r.Handle("/metrics", s.recorder.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/skeleton", s.handleSkeleton)
		r.Post("/api/skeleton/file", s.handleSkeletonFile)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Post("/api/jobs/batch", s.handleBatchJobs)
		r.Get("/api/jobs/{jobID}/status", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/view", s.handleJobView)
		r.Get("/api/jobs/{jobID}/result/{part}", s.handleJobResult)
		r.Delete("/api/jobs/{jobID}/result", s.handleDeleteJobResult)

		r.Get("/api/stats/transform", s.handleTransformStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
