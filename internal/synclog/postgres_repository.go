package synclog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dockpulse/dockpulse/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL sync log repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a run record.
func (r *PostgresRepository) Create(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO sync_log (id, status, stations_updated, snapshots_created, response_time_ms, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Status,
		entry.StationsUpdated,
		entry.SnapshotsCreated,
		entry.ResponseTimeMS,
		entry.ErrorMessage,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return database.ClassifyError(err)
	}

	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, status, stations_updated, snapshots_created, response_time_ms, error_message, created_at
		FROM sync_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, database.ClassifyError(err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.ID,
			&e.Status,
			&e.StationsUpdated,
			&e.SnapshotsCreated,
			&e.ResponseTimeMS,
			&e.ErrorMessage,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError(err)
	}

	return entries, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
