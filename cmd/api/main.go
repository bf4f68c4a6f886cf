// Package main provides the entrypoint for the swellwatch API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/api"
	"github.com/swellwatch/swellwatch/internal/api/middleware"
	"github.com/swellwatch/swellwatch/internal/database"
	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/forecast/modelserver"
	"github.com/swellwatch/swellwatch/internal/grid/nomads"
	"github.com/swellwatch/swellwatch/internal/patch"
	"github.com/swellwatch/swellwatch/internal/provider/resilience"
	"github.com/swellwatch/swellwatch/internal/region"
	"github.com/swellwatch/swellwatch/internal/station"
	"github.com/swellwatch/swellwatch/internal/station/ndbc"
	"github.com/swellwatch/swellwatch/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "swellwatch-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting swellwatch API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	forecastMetrics, err := middleware.NewForecastMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize forecast metrics")
	}

	registry := resilience.NewRegistry()

	// Load the station catalog: Postgres when configured, the NDBC feed
	// otherwise.
	catalog, err := loadCatalog(ctx, log, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load station catalog")
	}
	log.Info().Int("stations", catalog.Len()).Msg("station catalog loaded")

	// Grid field provider.
	gridCfg := nomads.DefaultConfig()
	gridCfg.BaseURL = os.Getenv("GRID_SERVICE_URL")
	if gridCfg.BaseURL == "" {
		gridCfg.BaseURL = "http://localhost:8090"
	}
	gridClient := nomads.NewClient(gridCfg, log)
	registry.Register(nomads.ProviderName, gridClient.Resilience())

	// Predictor: a model server when configured, synthetic otherwise.
	var predictor forecast.Predictor
	if modelURL := os.Getenv("MODEL_SERVER_URL"); modelURL != "" {
		modelCfg := modelserver.DefaultConfig()
		modelCfg.BaseURL = modelURL
		modelClient := modelserver.NewClient(modelCfg, log)
		registry.Register(modelserver.ProviderName, modelClient.Resilience())
		predictor = modelClient
	} else {
		predictor = forecast.NewSyntheticPredictor()
		log.Warn().Msg("MODEL_SERVER_URL not set - using synthetic predictor")
	}

	builder := patch.NewBuilder(gridClient, patch.DefaultConfig(), log)
	engine := forecast.NewEngine(builder, predictor, forecast.DefaultConfig(), log)
	regionService := region.NewService(catalog, engine, log)

	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		PredictorName: predictor.Name(),
		Logger:        log,
		ServiceName:   serviceName,
		Metrics:       metrics,
		ForecastMx:    forecastMetrics,
		Catalog:       catalog,
		Registry:      registry,
		Forecaster:    engine,
		Regions:       regionService,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped")
}

// loadCatalog loads stations from Postgres when a database is
// configured, and from the NDBC active-stations feed otherwise.
func loadCatalog(ctx context.Context, log zerolog.Logger, registry *resilience.Registry) (*station.Catalog, error) {
	dbCfg := database.ConfigFromEnv()
	if dbCfg.Enabled() {
		pool, err := database.Connect(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", dbCfg.Database).Msg("loading stations from database")
		return station.Load(ctx, station.NewPostgresSource(pool))
	}

	feedCfg := ndbc.ClientConfig{Logger: log}
	if url := os.Getenv("NDBC_FEED_URL"); url != "" {
		feedCfg.FeedURL = url
	}
	client := ndbc.NewClient(feedCfg)
	registry.Register(ndbc.ProviderName, client.Resilience())

	log.Info().Msg("loading stations from NDBC feed")
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return station.Load(loadCtx, client)
}
