// Package api provides the HTTP API for DockPulse.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/api/handler"
	"github.com/dockpulse/dockpulse/internal/api/middleware"
	"github.com/dockpulse/dockpulse/internal/auth"
	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/collector"
	"github.com/dockpulse/dockpulse/internal/lookup"
	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/worker"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	Tokens *auth.TokenService
	DB     handler.Pinger

	Stations   station.Repository
	Snapshots  availability.Repository
	Lookup     *lookup.Service
	Collector  *collector.Collector
	Aggregator *reliability.Aggregator
	Runner     *worker.AggregateRunner

	// WindowDays is the default aggregation window for internal triggers.
	WindowDays int
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	stationHandler := handler.NewStationHandler(cfg.Stations, cfg.Snapshots, cfg.Lookup)
	internalHandler := handler.NewInternalHandler(handler.InternalHandlerConfig{
		Collector:  cfg.Collector,
		Aggregator: cfg.Aggregator,
		Runner:     cfg.Runner,
		WindowDays: cfg.WindowDays,
		Logger:     cfg.Logger,
	})

	internalAuth := middleware.InternalAuth(cfg.Tokens)

	internalRateLimit := middleware.RateLimitByIP(middleware.InternalRateLimit) // 10 req/min
	nearbyRateLimit := middleware.RateLimitByIP(middleware.NearbyRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Station endpoints (public)
		r.Route("/stations", func(r chi.Router) {
			// Nearby ranking is the expensive path, tighter limit
			r.With(nearbyRateLimit).Get("/nearby", stationHandler.Nearby)

			r.Group(func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", stationHandler.List)
				r.Route("/{stationID}", func(r chi.Router) {
					r.Get("/", stationHandler.Get)
					r.Get("/reliability", stationHandler.Reliability)
					r.Get("/availability", stationHandler.Availability)
				})
			})
		})

		// Internal endpoints (service tokens only) - strict rate limiting
		r.Route("/internal", func(r chi.Router) {
			r.Use(internalAuth)
			r.Use(internalRateLimit)
			r.Post("/sync/stations", internalHandler.SyncStations)
			r.Post("/sync/availability", internalHandler.CollectAvailability)
			r.Get("/sync/health", internalHandler.SyncHealth)
			r.With(middleware.RequireJSON).Post("/aggregate", internalHandler.Aggregate)
		})
	})

	return r
}
