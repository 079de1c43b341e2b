package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/config"
	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/metrics"
	"github.com/JakeFAU/realtime-lead-scraper/internal/service"
)

// queryTimeout bounds read and maintenance routes. Scrape routes run to
// completion on the caller's connection.
const queryTimeout = 60 * time.Second

// Server wires HTTP handlers to the lead service.
type Server struct {
	router chi.Router
	svc    *service.Service
	clock  lead.Clock
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc *service.Service, clock lead.Clock, auth config.AuthConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:    svc,
		clock:  clock,
		logger: logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if auth.Enabled {
			r.Use(apiKeyMiddleware(auth.APIKey))
		}
		r.Post("/scrape/trigger", s.triggerScrape)
		r.Post("/scrape/bulk", s.bulkScrape)

		r.Group(func(r chi.Router) {
			r.Use(timeoutMiddleware(queryTimeout))
			r.Post("/leads/search", s.searchLeads)
			r.Get("/leads", s.listLeads)
			r.Get("/leads/export/csv", s.exportCSV)
			r.Post("/leads/deduplicate", s.dedupeLeads)
			r.Delete("/leads/clear", s.clearLeads)
			r.Get("/stats", s.stats)
			r.Get("/scrape/targets", s.listTargets)
			r.Post("/scrape/targets", s.addTarget)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
