// Package api provides the HTTP API for swellwatch.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/api/handler"
	"github.com/swellwatch/swellwatch/internal/api/middleware"
	"github.com/swellwatch/swellwatch/internal/provider/resilience"
	"github.com/swellwatch/swellwatch/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version       string
	BuildTime     string
	PredictorName string
	Logger        zerolog.Logger
	ServiceName   string
	Metrics       *middleware.Metrics
	ForecastMx    *middleware.ForecastMetrics
	Catalog       *station.Catalog
	Registry      *resilience.Registry
	Forecaster    handler.Forecaster
	Regions       handler.RegionForecaster
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "swellwatch-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.RequireJSON)          // Reject non-JSON request bodies
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.PredictorName, cfg.Catalog, cfg.Registry)
	stationHandler := handler.NewStationHandler(cfg.Catalog)
	predictHandler := handler.NewPredictHandler(cfg.Catalog, cfg.Forecaster, cfg.Regions, cfg.ForecastMx)

	forecastRateLimit := middleware.RateLimitByIP(middleware.ForecastRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/api", func(r chi.Router) {
		// Ops endpoints (unthrottled so probes never get limited)
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)

		// Catalog endpoints
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/ocean-regions", stationHandler.ListOceanRegions)
			r.Get("/stations", stationHandler.ListStations)
			r.Get("/station/{stationId}", stationHandler.GetStation)
		})

		// Forecast endpoints fan out to the grid provider and model
		// server, so they get the tighter limit.
		r.Group(func(r chi.Router) {
			r.Use(forecastRateLimit)
			r.Post("/predict", predictHandler.Predict)
			r.Post("/predict-ocean", predictHandler.PredictOcean)
		})
	})

	return r
}
