package availability

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
	nextID    int64
}

// NewInMemoryRepository creates a new in-memory snapshot repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

// AppendBatch persists a batch of snapshots.
func (r *InMemoryRepository) AppendBatch(_ context.Context, snapshots []*Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range snapshots {
		snapshotCopy := *s
		snapshotCopy.ID = r.nextID
		snapshotCopy.ObservedAt = s.ObservedAt.UTC()
		r.nextID++
		r.snapshots = append(r.snapshots, &snapshotCopy)
	}
	return nil
}

// ListRange returns snapshots for a station within [start, end) ordered by
// observation time.
func (r *InMemoryRepository) ListRange(_ context.Context, stationID int64, start, end time.Time) ([]*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Snapshot
	for _, s := range r.snapshots {
		if s.StationID != stationID {
			continue
		}
		if s.ObservedAt.Before(start.UTC()) || !s.ObservedAt.Before(end.UTC()) {
			continue
		}
		snapshotCopy := *s
		out = append(out, &snapshotCopy)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ObservedAt.Before(out[j].ObservedAt)
	})

	return out, nil
}

// Latest returns the most recent snapshot for a station.
func (r *InMemoryRepository) Latest(_ context.Context, stationID int64) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Snapshot
	for _, s := range r.snapshots {
		if s.StationID != stationID {
			continue
		}
		if latest == nil || s.ObservedAt.After(latest.ObservedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}

	snapshotCopy := *latest
	return &snapshotCopy, nil
}

// PruneBefore deletes snapshots observed before the cutoff.
func (r *InMemoryRepository) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.snapshots[:0]
	var removed int64
	for _, s := range r.snapshots {
		if s.ObservedAt.Before(cutoff.UTC()) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	r.snapshots = kept

	return removed, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
