package station

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu       sync.RWMutex
	stations map[int64]*Station
	external map[string]int64 // external id -> internal id mapping
	nextID   int64
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		stations: make(map[int64]*Station),
		external: make(map[string]int64),
		nextID:   1,
	}
}

// Get retrieves a station by internal id.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}

	return copyStation(s), nil
}

// GetByExternalID retrieves a station by its feed id.
func (r *InMemoryRepository) GetByExternalID(_ context.Context, externalID string) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.external[externalID]
	if !ok {
		return nil, ErrStationNotFound
	}

	return copyStation(r.stations[id]), nil
}

// List retrieves all stations ordered by internal id.
func (r *InMemoryRepository) List(_ context.Context, activeOnly bool) ([]*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stations []*Station
	for _, s := range r.stations {
		if activeOnly && !s.IsActive {
			continue
		}
		stations = append(stations, copyStation(s))
	}

	sort.Slice(stations, func(i, j int) bool {
		return stations[i].ID < stations[j].ID
	})

	return stations, nil
}

// Create inserts a new station and assigns its internal id.
func (r *InMemoryRepository) Create(_ context.Context, s *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.external[s.ExternalID]; ok {
		return ErrDuplicateStation
	}

	s.ID = r.nextID
	r.nextID++

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	r.stations[s.ID] = copyStation(s)
	r.external[s.ExternalID] = s.ID
	return nil
}

// Update persists changes to an existing station.
func (r *InMemoryRepository) Update(_ context.Context, s *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[s.ID]; !ok {
		return ErrStationNotFound
	}

	s.UpdatedAt = time.Now().UTC()
	r.stations[s.ID] = copyStation(s)
	return nil
}

// copyStation creates a copy of a station.
func copyStation(s *Station) *Station {
	if s == nil {
		return nil
	}
	stationCopy := *s
	return &stationCopy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
