package availability

import (
	"context"
	"time"
)

// Repository is the persistence contract for availability snapshots.
type Repository interface {
	// AppendBatch persists a batch of snapshots. Appends are atomic per
	// batch.
	AppendBatch(ctx context.Context, snapshots []*Snapshot) error

	// ListRange returns all snapshots for a station with ObservedAt in
	// [start, end), ordered by ObservedAt ascending. An empty result is
	// not an error.
	ListRange(ctx context.Context, stationID int64, start, end time.Time) ([]*Snapshot, error)

	// Latest returns the most recent snapshot for a station, or nil when
	// the station has no snapshots yet.
	Latest(ctx context.Context, stationID int64) (*Snapshot, error)

	// PruneBefore deletes snapshots observed before the cutoff and returns
	// the number removed. Used to enforce the rolling retention window.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
