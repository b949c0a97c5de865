// Package database provides PostgreSQL connection management and
// classification of storage failures into the error kinds the domain
// packages expose.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage failure kinds. Repositories wrap low-level pgx errors with these so
// callers can distinguish a retryable outage from a deadline without
// depending on driver types. The core never retries internally; retry policy
// belongs to the scheduling collaborator.
var (
	// ErrUnavailable indicates the store failed to respond. Retryable.
	ErrUnavailable = errors.New("store unavailable")

	// ErrTimeout indicates an in-flight store operation exceeded its deadline.
	ErrTimeout = errors.New("store operation timed out")
)

// Config holds database connection configuration.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionString returns the PostgreSQL connection string.
func (c Config) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Connect creates a new database connection pool and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by config validation
	poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // bounded by config validation
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// ClassifyError maps a storage-layer error onto ErrTimeout or ErrUnavailable
// while preserving the original error in the chain. Context cancellation is
// passed through untouched so cooperative shutdown is not reported as an
// outage. Domain sentinels (not-found and friends) must be mapped by the
// repository before calling this.
func ClassifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	default:
		return errors.Join(ErrUnavailable, err)
	}
}
