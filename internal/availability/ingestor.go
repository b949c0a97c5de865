package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// IngestorConfig holds dependencies for the Ingestor.
type IngestorConfig struct {
	Stations  station.Repository
	Snapshots Repository

	// Location is the wall-clock zone used to bucket observations.
	Location *time.Location

	Logger zerolog.Logger
}

// Ingestor resolves raw feed observations against the station registry and
// persists them as bucketed snapshots.
type Ingestor struct {
	stations  station.Repository
	snapshots Repository
	location  *time.Location
	logger    zerolog.Logger
}

// NewIngestor creates an Ingestor. A nil Location falls back to UTC.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Ingestor{
		stations:  cfg.Stations,
		snapshots: cfg.Snapshots,
		location:  loc,
		logger:    cfg.Logger.With().Str("component", "availability_ingestor").Logger(),
	}
}

// Rejection records why a single observation was not persisted.
type Rejection struct {
	Observation Observation
	Reason      error
}

// IngestResult summarizes one Ingest call.
type IngestResult struct {
	Accepted int
	Rejected []Rejection
}

// Ingest validates and persists a batch of observations. Malformed
// observations and observations for stations not in the registry are
// collected as rejections rather than failing the batch; a storage failure
// fails the whole batch. An empty batch is rejected with ErrEmptyBatch.
func (i *Ingestor) Ingest(ctx context.Context, observations []Observation) (*IngestResult, error) {
	if len(observations) == 0 {
		return nil, ErrEmptyBatch
	}

	result := &IngestResult{}
	snapshots := make([]*Snapshot, 0, len(observations))

	for _, obs := range observations {
		if obs.BikesAvailable < 0 || obs.DocksAvailable < 0 {
			result.Rejected = append(result.Rejected, Rejection{Observation: obs, Reason: ErrNegativeCount})
			continue
		}

		st, err := i.stations.GetByExternalID(ctx, obs.ExternalStationID)
		if err != nil {
			if errors.Is(err, station.ErrStationNotFound) {
				result.Rejected = append(result.Rejected, Rejection{Observation: obs, Reason: ErrUnknownStation})
				continue
			}
			return nil, fmt.Errorf("resolving station %q: %w", obs.ExternalStationID, err)
		}

		observedAt := obs.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now()
		}

		snapshots = append(snapshots, &Snapshot{
			StationID:      st.ID,
			BikesAvailable: obs.BikesAvailable,
			DocksAvailable: obs.DocksAvailable,
			IsRenting:      obs.IsRenting,
			IsReturning:    obs.IsReturning,
			ObservedAt:     observedAt.UTC(),
			Bucket:         timebucket.Classify(observedAt, i.location),
		})
	}

	if err := i.snapshots.AppendBatch(ctx, snapshots); err != nil {
		return nil, fmt.Errorf("appending snapshots: %w", err)
	}
	result.Accepted = len(snapshots)

	if len(result.Rejected) > 0 {
		i.logger.Warn().
			Int("accepted", result.Accepted).
			Int("rejected", len(result.Rejected)).
			Msg("observation batch partially ingested")
	}

	return result, nil
}
