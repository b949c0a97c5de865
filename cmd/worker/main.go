// Package main provides the entrypoint for the DockPulse worker. It runs the
// scheduled feed collection, station sync, aggregation and retention jobs,
// and optionally consumes on-demand job messages from Pub/Sub.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/api/middleware"
	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/collector"
	"github.com/dockpulse/dockpulse/internal/config"
	"github.com/dockpulse/dockpulse/internal/database"
	"github.com/dockpulse/dockpulse/internal/gbfs"
	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/synclog"
	"github.com/dockpulse/dockpulse/internal/telemetry"
	"github.com/dockpulse/dockpulse/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "dockpulse-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DockPulse worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TelemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	pool, err := database.Connect(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Name).
		Msg("database connected")

	stations := station.NewPostgresRepository(pool)
	snapshots := availability.NewPostgresRepository(pool)
	scores := reliability.NewPostgresRepository(pool)
	runs := synclog.NewPostgresRepository(pool)

	feed := gbfs.NewClient(gbfs.ClientConfig{
		InformationURL: cfg.Feed.InformationURL,
		StatusURL:      cfg.Feed.StatusURL,
		Logger:         log,
	})

	ingestor := availability.NewIngestor(availability.IngestorConfig{
		Stations:  stations,
		Snapshots: snapshots,
		Location:  cfg.Location(),
		Logger:    log,
	})

	coll := collector.New(collector.Config{
		Feed:     feed,
		Stations: stations,
		Ingestor: ingestor,
		SyncLog:  runs,
		Logger:   log,
	})

	aggregator := reliability.NewAggregator(reliability.AggregatorConfig{
		Stations:   stations,
		Snapshots:  snapshots,
		Scores:     scores,
		MinSamples: cfg.MinSamples,
		Logger:     log,
	})

	runner := worker.NewAggregateRunner(worker.AggregateRunnerConfig{
		Stations:   stations,
		Aggregator: aggregator,
		Logger:     log,
	})

	collectionMetrics, err := middleware.NewCollectionMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize collection metrics")
	}

	scheduler := worker.NewScheduler(worker.SchedulerConfig{
		Collector:          coll,
		Runner:             runner,
		Snapshots:          snapshots,
		Metrics:            collectionMetrics,
		CollectionInterval: cfg.CollectionInterval,
		WindowDays:         cfg.AggregationWindowDays,
		Logger:             log,
	})
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer scheduler.Stop()

	// Pub/Sub is optional; scheduled jobs alone are a complete worker.
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
		if subscription == "" {
			subscription = "dockpulse-worker-jobs"
		}

		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			Collector:        coll,
			Runner:           runner,
			WindowDays:       cfg.AggregationWindowDays,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := pubsubHandler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
	} else {
		log.Info().Msg("PUBSUB_PROJECT_ID not set, on-demand jobs disabled")
	}

	// Health endpoint so the platform can probe the worker.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, Version)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
