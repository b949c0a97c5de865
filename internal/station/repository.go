package station

import "context"

// Repository is the persistence contract for stations.
type Repository interface {
	// Get returns the station by internal id. Returns ErrStationNotFound
	// when no such station exists.
	Get(ctx context.Context, id int64) (*Station, error)

	// GetByExternalID returns the station carrying the given feed id.
	// Returns ErrStationNotFound when no such station exists.
	GetByExternalID(ctx context.Context, externalID string) (*Station, error)

	// List returns all stations ordered by internal id. When activeOnly is
	// set, deactivated stations are excluded.
	List(ctx context.Context, activeOnly bool) ([]*Station, error)

	// Create persists a new station and assigns its internal id. Returns
	// ErrDuplicateStation when the external id is already registered.
	Create(ctx context.Context, s *Station) error

	// Update persists changes to an existing station. Returns
	// ErrStationNotFound when no such station exists.
	Update(ctx context.Context, s *Station) error
}
