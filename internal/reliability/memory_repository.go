package reliability

import (
	"context"
	"sort"
	"sync"

	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu     sync.RWMutex
	scores map[int64][]*Score // keyed by station id
	nextID int64
}

// NewInMemoryRepository creates a new in-memory score repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		scores: make(map[int64][]*Score),
		nextID: 1,
	}
}

// ReplaceForStation replaces the station's scores wholesale.
func (r *InMemoryRepository) ReplaceForStation(_ context.Context, stationID int64, scores []*Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replacement := make([]*Score, 0, len(scores))
	for _, s := range scores {
		scoreCopy := *s
		scoreCopy.ID = r.nextID
		scoreCopy.StationID = stationID
		r.nextID++
		replacement = append(replacement, &scoreCopy)
	}
	r.scores[stationID] = replacement
	return nil
}

// ListForStation returns scores ordered by day type then hour.
func (r *InMemoryRepository) ListForStation(_ context.Context, stationID int64, dayType *timebucket.DayType) ([]*Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Score
	for _, s := range r.scores[stationID] {
		if dayType != nil && s.DayType != *dayType {
			continue
		}
		scoreCopy := *s
		out = append(out, &scoreCopy)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DayType != out[j].DayType {
			return out[i].DayType == timebucket.DayTypeWeekday
		}
		return out[i].Hour < out[j].Hour
	})

	return out, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
