// Package main provides the entrypoint for the swellwatch sweep worker,
// which periodically forecasts configured ocean regions and dispatches
// alerts for stations whose predicted wave height exceeds the threshold.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/api/middleware"
	"github.com/swellwatch/swellwatch/internal/database"
	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/forecast/modelserver"
	"github.com/swellwatch/swellwatch/internal/grid/nomads"
	"github.com/swellwatch/swellwatch/internal/notify"
	"github.com/swellwatch/swellwatch/internal/patch"
	"github.com/swellwatch/swellwatch/internal/region"
	"github.com/swellwatch/swellwatch/internal/station"
	"github.com/swellwatch/swellwatch/internal/station/ndbc"
	"github.com/swellwatch/swellwatch/internal/telemetry"
	"github.com/swellwatch/swellwatch/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "swellwatch-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting swellwatch sweep worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	forecastMetrics, err := middleware.NewForecastMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize forecast metrics")
	}

	catalog, err := loadCatalog(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load station catalog")
	}
	log.Info().Int("stations", catalog.Len()).Msg("station catalog loaded")

	gridCfg := nomads.DefaultConfig()
	gridCfg.BaseURL = os.Getenv("GRID_SERVICE_URL")
	if gridCfg.BaseURL == "" {
		gridCfg.BaseURL = "http://localhost:8090"
	}
	gridClient := nomads.NewClient(gridCfg, log)

	var predictor forecast.Predictor
	if modelURL := os.Getenv("MODEL_SERVER_URL"); modelURL != "" {
		modelCfg := modelserver.DefaultConfig()
		modelCfg.BaseURL = modelURL
		predictor = modelserver.NewClient(modelCfg, log)
	} else {
		predictor = forecast.NewSyntheticPredictor()
		log.Warn().Msg("MODEL_SERVER_URL not set - using synthetic predictor")
	}

	builder := patch.NewBuilder(gridClient, patch.DefaultConfig(), log)
	engine := forecast.NewEngine(builder, predictor, forecast.DefaultConfig(), log)
	regionService := region.NewService(catalog, engine, log)

	jobCfg := worker.SweepJobConfig{
		Config:  worker.SweepConfigFromEnv(),
		Logger:  log,
		Regions: regionService,
		Metrics: forecastMetrics,
	}

	dispatcherCfg := notify.DefaultConfig()
	dispatcherCfg.WebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	if dispatcherCfg.WebhookURL != "" {
		jobCfg.Dispatcher = notify.NewDispatcher(dispatcherCfg, log)
	} else {
		log.Warn().Msg("ALERT_WEBHOOK_URL not set - alerts will not be delivered")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		streamCfg := notify.DefaultStreamConfig()
		streamCfg.Brokers = strings.Split(brokers, ",")
		stream := notify.NewStream(streamCfg, log)
		defer func() {
			if closeErr := stream.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close alert stream")
			}
		}()
		jobCfg.Stream = stream
	}

	healthServer := startHealthServer(log)

	job := worker.NewSweepJob(jobCfg)
	job.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown failed")
	}

	log.Info().Msg("worker stopped")
}

// startHealthServer serves liveness probes while the sweep loop runs.
func startHealthServer(log zerolog.Logger) *http.Server {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"OK","version":%q}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	return server
}

// loadCatalog loads stations from Postgres when a database is
// configured, and from the NDBC active-stations feed otherwise.
func loadCatalog(ctx context.Context, log zerolog.Logger) (*station.Catalog, error) {
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
	log.Info().Msg("loading stations from NDBC feed")
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return station.Load(loadCtx, ndbc.NewClient(feedCfg))
}
