// Package config loads and validates process configuration from the
// environment. A local .env file is honored in development; real deployments
// set the environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full process configuration shared by the API server and the
// worker.
type Config struct {
	// Environment is one of development, staging, production.
	Environment string `validate:"required,oneof=development staging production"`

	// Port is the HTTP listen port for the API server.
	Port int `validate:"required,min=1,max=65535"`

	Database Database
	Feed     Feed
	Auth     Auth

	// Timezone is the IANA zone used for wall-clock bucketing. All
	// processes must agree on it.
	Timezone string `validate:"required"`

	// CollectionInterval is how often the worker polls the feed.
	CollectionInterval time.Duration `validate:"required,min=1m"`

	// AggregationWindowDays is the rolling snapshot window scores are
	// computed over.
	AggregationWindowDays int `validate:"required,min=1,max=365"`

	// MinSamples is the sample count below which scores carry low
	// confidence.
	MinSamples int `validate:"required,min=1"`

	// MaxNearbyLimit caps nearest-station query results.
	MaxNearbyLimit int `validate:"required,min=1"`

	// OTLPEndpoint is the OpenTelemetry collector address.
	OTLPEndpoint string

	// TelemetryEnabled toggles trace and metric export.
	TelemetryEnabled bool
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required,min=1,max=65535"`
	User     string `validate:"required"`
	Password string
	Name     string `validate:"required"`
	SSLMode  string `validate:"required,oneof=disable require verify-ca verify-full"`
}

// Feed holds the GBFS publisher endpoints.
type Feed struct {
	InformationURL string `validate:"required,url"`
	StatusURL      string `validate:"required,url"`
}

// Auth holds internal API authentication settings.
type Auth struct {
	SigningKey string `validate:"required,min=16"`
	Issuer     string `validate:"required"`
	Audience   string `validate:"required"`
}

// Load reads configuration from the environment, applying defaults for
// development. Validation failures are fatal at startup rather than surfacing
// as confusing behavior later.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvInt("APP_PORT", 8080),
		Database: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "dockpulse"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "dockpulse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Feed: Feed{
			InformationURL: getEnv("GBFS_INFORMATION_URL", "https://gbfs.urbansharing.com/rowermevo.pl/station_information.json"),
			StatusURL:      getEnv("GBFS_STATUS_URL", "https://gbfs.urbansharing.com/rowermevo.pl/station_status.json"),
		},
		Auth: Auth{
			SigningKey: getEnv("AUTH_SIGNING_KEY", "local-dev-signing-key-change-in-production"),
			Issuer:     getEnv("AUTH_ISSUER", "https://api.dockpulse.io"),
			Audience:   getEnv("AUTH_AUDIENCE", "dockpulse-internal"),
		},
		Timezone:              getEnv("APP_TIMEZONE", "Europe/Warsaw"),
		CollectionInterval:    getEnvDuration("COLLECTION_INTERVAL", 5*time.Minute),
		AggregationWindowDays: getEnvInt("AGGREGATION_WINDOW_DAYS", 30),
		MinSamples:            getEnvInt("MIN_SAMPLES", 4),
		MaxNearbyLimit:        getEnvInt("MAX_NEARBY_LIMIT", 20),
		OTLPEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TelemetryEnabled:      getEnv("OTEL_ENABLED", "") == "true",
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
