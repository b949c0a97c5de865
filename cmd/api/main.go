// Package main provides the entrypoint for the DockPulse API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/api"
	"github.com/dockpulse/dockpulse/internal/api/middleware"
	"github.com/dockpulse/dockpulse/internal/auth"
	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/collector"
	"github.com/dockpulse/dockpulse/internal/config"
	"github.com/dockpulse/dockpulse/internal/database"
	"github.com/dockpulse/dockpulse/internal/gbfs"
	"github.com/dockpulse/dockpulse/internal/lookup"
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
	const serviceName = "dockpulse-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DockPulse API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

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
		Int("port", cfg.Database.Port).
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

	finder := station.NewFinder(station.FinderConfig{
		Repository: stations,
		MaxLimit:   cfg.MaxNearbyLimit,
		Logger:     log,
	})

	lookupSvc := lookup.NewService(lookup.Config{
		Finder: finder,
		Scores: scores,
		Logger: log,
	})

	tokens := auth.NewTokenService(auth.TokenConfig{
		SigningKey: cfg.Auth.SigningKey,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
	})
	if cfg.Environment != "development" && cfg.Auth.SigningKey == "local-dev-signing-key-change-in-production" {
		log.Warn().Msg("using default signing key outside development")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:    Version,
		BuildTime:  BuildTime,
		Logger:     log,
		Metrics:    metrics,
		Tokens:     tokens,
		DB:         pool,
		Stations:   stations,
		Snapshots:  snapshots,
		Lookup:     lookupSvc,
		Collector:  coll,
		Aggregator: aggregator,
		Runner:     runner,
		WindowDays: cfg.AggregationWindowDays,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
