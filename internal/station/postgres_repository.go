package station

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dockpulse/dockpulse/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a station by internal id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Station, error) {
	query := `
		SELECT id, external_id, name, latitude, longitude, total_docks, is_active, created_at, updated_at
		FROM stations
		WHERE id = $1
	`

	return r.scanStation(ctx, query, id)
}

// GetByExternalID retrieves a station by its feed id.
func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*Station, error) {
	query := `
		SELECT id, external_id, name, latitude, longitude, total_docks, is_active, created_at, updated_at
		FROM stations
		WHERE external_id = $1
	`

	return r.scanStation(ctx, query, externalID)
}

// scanStation scans a single station from a query.
func (r *PostgresRepository) scanStation(ctx context.Context, query string, args ...interface{}) (*Station, error) {
	var s Station

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.ExternalID,
		&s.Name,
		&s.Coordinate.Lat,
		&s.Coordinate.Lon,
		&s.TotalDocks,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, database.ClassifyError(err)
	}

	return &s, nil
}

// List retrieves all stations ordered by internal id.
func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]*Station, error) {
	query := `
		SELECT id, external_id, name, latitude, longitude, total_docks, is_active, created_at, updated_at
		FROM stations
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, database.ClassifyError(err)
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		var s Station
		err := rows.Scan(
			&s.ID,
			&s.ExternalID,
			&s.Name,
			&s.Coordinate.Lat,
			&s.Coordinate.Lon,
			&s.TotalDocks,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		stations = append(stations, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError(err)
	}

	return stations, nil
}

// Create inserts a new station and assigns its internal id.
func (r *PostgresRepository) Create(ctx context.Context, s *Station) error {
	query := `
		INSERT INTO stations (external_id, name, latitude, longitude, total_docks, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	err := r.pool.QueryRow(ctx, query,
		s.ExternalID,
		s.Name,
		s.Coordinate.Lat,
		s.Coordinate.Lon,
		s.TotalDocks,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateStation
		}
		return database.ClassifyError(err)
	}

	return nil
}

// Update persists changes to an existing station.
func (r *PostgresRepository) Update(ctx context.Context, s *Station) error {
	query := `
		UPDATE stations SET
			name = $2,
			latitude = $3,
			longitude = $4,
			total_docks = $5,
			is_active = $6,
			updated_at = $7
		WHERE id = $1
	`

	s.UpdatedAt = time.Now().UTC()

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Coordinate.Lat,
		s.Coordinate.Lon,
		s.TotalDocks,
		s.IsActive,
		s.UpdatedAt,
	)
	if err != nil {
		return database.ClassifyError(err)
	}

	if result.RowsAffected() == 0 {
		return ErrStationNotFound
	}

	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
