package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/figops/internal/config"
	"github.com/dgallion1/figops/internal/metrics"
	"github.com/dgallion1/figops/internal/pipeline"
	"github.com/dgallion1/figops/internal/refine"
	"github.com/dgallion1/figops/internal/tasks"
)

// Server is the HTTP API server for figops.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	plans        tasks.Store
	refineStats  *refine.Stats
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. refineStats and m may
// be nil.
func NewServer(orch *pipeline.Orchestrator, plans tasks.Store, refineStats *refine.Stats, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		plans:        plans,
		refineStats:  refineStats,
		metrics:      m,
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
	r.Use(RequestMetrics(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.FigopsAPIKey, s.log))

		r.Post("/api/imports", s.handleImport)
		r.Get("/api/imports/{jobID}/status", s.handleImportStatus)
		r.Get("/api/imports/{jobID}/index", s.handleImportIndex)
		r.Get("/api/imports/{jobID}/export.xlsx", s.handleImportExport)

		r.Get("/api/screens/{figmaID}", s.handleGetScreen)
		r.Get("/api/covers/{prefix}.png", s.handleCoverPNG)

		r.Get("/api/screens/{figmaID}/plan", s.handleGetPlan)
		r.Put("/api/screens/{figmaID}/plan", s.handlePutPlan)
		r.Delete("/api/screens/{figmaID}/plan", s.handleDeletePlan)
		r.Get("/api/plans", s.handleListPlans)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
