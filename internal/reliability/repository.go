package reliability

import (
	"context"

	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// Repository is the persistence contract for reliability scores.
type Repository interface {
	// ReplaceForStation atomically replaces every score held for the
	// station with the given set. Keys absent from the new set are
	// removed, so a shrinking window cannot leave stale buckets behind.
	ReplaceForStation(ctx context.Context, stationID int64, scores []*Score) error

	// ListForStation returns the station's scores ordered by day type
	// (weekday first) then hour. A nil dayType returns both day types.
	ListForStation(ctx context.Context, stationID int64, dayType *timebucket.DayType) ([]*Score, error)
}
