package reliability

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dockpulse/dockpulse/internal/database"
	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL score repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ReplaceForStation replaces the station's scores in a single transaction.
// Readers either see the previous full set or the new full set, never a mix.
func (r *PostgresRepository) ReplaceForStation(ctx context.Context, stationID int64, scores []*Score) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return database.ClassifyError(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reliability_scores WHERE station_id = $1`, stationID); err != nil {
		return database.ClassifyError(err)
	}

	insert := `
		INSERT INTO reliability_scores
			(station_id, hour, day_type, reliability_pct, avg_bikes, sample_size, confidence, period_start, period_end, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(insert,
			stationID,
			s.Hour,
			s.DayType,
			s.ReliabilityPct,
			s.AvgBikes,
			s.SampleSize,
			s.Confidence,
			s.PeriodStart.UTC(),
			s.PeriodEnd.UTC(),
			s.CalculatedAt.UTC(),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range scores {
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

// ListForStation returns scores ordered by day type then hour.
func (r *PostgresRepository) ListForStation(ctx context.Context, stationID int64, dayType *timebucket.DayType) ([]*Score, error) {
	query := `
		SELECT id, station_id, hour, day_type, reliability_pct, avg_bikes, sample_size, confidence, period_start, period_end, calculated_at
		FROM reliability_scores
		WHERE station_id = $1
	`
	args := []interface{}{stationID}
	if dayType != nil {
		query += ` AND day_type = $2`
		args = append(args, *dayType)
	}
	query += ` ORDER BY CASE day_type WHEN 'weekday' THEN 0 ELSE 1 END, hour`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.ClassifyError(err)
	}
	defer rows.Close()

	var scores []*Score
	for rows.Next() {
		var s Score
		err := rows.Scan(
			&s.ID,
			&s.StationID,
			&s.Hour,
			&s.DayType,
			&s.ReliabilityPct,
			&s.AvgBikes,
			&s.SampleSize,
			&s.Confidence,
			&s.PeriodStart,
			&s.PeriodEnd,
			&s.CalculatedAt,
		)
		if err != nil {
			return nil, err
		}
		scores = append(scores, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError(err)
	}

	return scores, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
