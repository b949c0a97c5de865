// Package availability stores point-in-time dock availability snapshots and
// ingests raw feed observations into them.
package availability

import (
	"errors"
	"time"

	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// Domain errors.
var (
	ErrUnknownStation = errors.New("observation references an unknown station")
	ErrNegativeCount  = errors.New("availability counts must not be negative")
	ErrEmptyBatch     = errors.New("observation batch is empty")
)

// Observation is one raw reading from the external feed, keyed by the feed's
// station id. It has not yet been resolved against the station registry.
type Observation struct {
	ExternalStationID string
	BikesAvailable    int
	DocksAvailable    int
	IsRenting         bool
	IsReturning       bool
	ObservedAt        time.Time
}

// Snapshot is a persisted availability reading resolved to an internal
// station, with its time bucket precomputed at write time so aggregation
// never re-derives wall-clock buckets from stored timestamps.
type Snapshot struct {
	ID             int64
	StationID      int64
	BikesAvailable int
	DocksAvailable int

	// Renting and returning state at observation time. Collection only
	// covers renting stations, but the flags are recorded as observed.
	IsRenting   bool
	IsReturning bool

	// ObservedAt is stored in UTC.
	ObservedAt time.Time

	// Bucket holds the wall-clock classification of ObservedAt in the
	// system zone, fixed at ingest time.
	Bucket timebucket.Bucket
}

// HasBikes reports whether at least one bike was available at snapshot time.
// This is the predicate reliability percentages are computed over.
func (s Snapshot) HasBikes() bool {
	return s.BikesAvailable > 0
}
