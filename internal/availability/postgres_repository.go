package availability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dockpulse/dockpulse/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// AppendBatch persists a batch of snapshots in a single transaction.
func (r *PostgresRepository) AppendBatch(ctx context.Context, snapshots []*Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return database.ClassifyError(err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO availability_snapshots
			(station_id, bikes_available, docks_available, is_renting, is_returning, observed_at, day_of_week, hour, minute_slot, day_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(query,
			s.StationID,
			s.BikesAvailable,
			s.DocksAvailable,
			s.IsRenting,
			s.IsReturning,
			s.ObservedAt.UTC(),
			s.Bucket.DayOfWeek,
			s.Bucket.Hour,
			s.Bucket.MinuteSlot,
			s.Bucket.DayType,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range snapshots {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return database.ClassifyError(err)
		}
	}
	if err := results.Close(); err != nil {
		return database.ClassifyError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.ClassifyError(err)
	}

	return nil
}

// ListRange returns snapshots for a station within [start, end) ordered by
// observation time.
func (r *PostgresRepository) ListRange(ctx context.Context, stationID int64, start, end time.Time) ([]*Snapshot, error) {
	query := `
		SELECT id, station_id, bikes_available, docks_available, is_renting, is_returning, observed_at, day_of_week, hour, minute_slot, day_type
		FROM availability_snapshots
		WHERE station_id = $1 AND observed_at >= $2 AND observed_at < $3
		ORDER BY observed_at
	`

	rows, err := r.pool.Query(ctx, query, stationID, start.UTC(), end.UTC())
	if err != nil {
		return nil, database.ClassifyError(err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError(err)
	}

	return snapshots, nil
}

// Latest returns the most recent snapshot for a station.
func (r *PostgresRepository) Latest(ctx context.Context, stationID int64) (*Snapshot, error) {
	query := `
		SELECT id, station_id, bikes_available, docks_available, is_renting, is_returning, observed_at, day_of_week, hour, minute_slot, day_type
		FROM availability_snapshots
		WHERE station_id = $1
		ORDER BY observed_at DESC
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, stationID)
	s, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.ClassifyError(err)
	}

	return s, nil
}

// PruneBefore deletes snapshots observed before the cutoff.
func (r *PostgresRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM availability_snapshots WHERE observed_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, database.ClassifyError(err)
	}

	return result.RowsAffected(), nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	err := row.Scan(
		&s.ID,
		&s.StationID,
		&s.BikesAvailable,
		&s.DocksAvailable,
		&s.IsRenting,
		&s.IsReturning,
		&s.ObservedAt,
		&s.Bucket.DayOfWeek,
		&s.Bucket.Hour,
		&s.Bucket.MinuteSlot,
		&s.Bucket.DayType,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
