package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/metrics"
	"github.com/claude/runplan/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Version is reported by /health.
const Version = "2.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	defaults config.ModelDefaults
	plot     config.PlotConfig
	store    storage.PlanStore
	mcp      http.Handler
	whois    WhoIser
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured. store and mcpHandler
// may be nil; the plan routes then answer 503 and /mcp is not mounted.
func New(cfg *config.Config, store storage.PlanStore, mcpHandler http.Handler, log *slog.Logger) *Server {
	s := &Server{
		defaults: cfg.Defaults,
		plot:     cfg.Plot,
		store:    store,
		mcp:      mcpHandler,
		log:      log,
		apiKey:   cfg.Auth.APIKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(metrics.Middleware)
	s.router.Use(s.identity)

	s.router.Get("/", s.handleRoot)
	s.router.Handle("/metrics", metrics.Handler())
	if s.mcp != nil {
		s.router.Handle("/mcp", s.mcp)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/calculate-mileage", s.handleCalculateMileage)
		r.Post("/calculate-week", s.handleCalculateWeek)
		r.Post("/rate-of-change", s.handleRateOfChange)
		r.Post("/visualise", s.handleVisualise)
		r.Get("/health", s.handleHealth)
		r.Get("/models", s.handleModels)
		r.Get("/me", s.handleMe)

		r.Route("/plans", func(r chi.Router) {
			r.Use(requireStore(s.store))
			r.Get("/", s.handleListPlans)
			r.With(APIKeyAuth(s.apiKey)).Post("/", s.handleCreatePlan)
			r.Get("/{id}", s.handleGetPlan)
			r.With(APIKeyAuth(s.apiKey)).Delete("/{id}", s.handleDeletePlan)
			r.Post("/{id}/visualise", s.handleVisualisePlan)
			r.Get("/{id}/chart.png", s.handlePlanChart)
		})

		r.Get("/chart.png", s.handleChart)
	})
}
