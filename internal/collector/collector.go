// Package collector drives feed collection: syncing the station registry
// against the external feed and turning live status into availability
// snapshots.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/gbfs"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/synclog"
)

// FeedFetcher is the feed dependency, satisfied by *gbfs.Client.
type FeedFetcher interface {
	FetchStations(ctx context.Context) ([]gbfs.FeedStation, error)
}

// Config holds dependencies for the Collector.
type Config struct {
	Feed     FeedFetcher
	Stations station.Repository
	Ingestor *availability.Ingestor
	SyncLog  synclog.Repository
	Logger   zerolog.Logger
}

// Collector synchronizes the station registry and collects availability
// snapshots from the feed.
type Collector struct {
	feed     FeedFetcher
	stations station.Repository
	ingestor *availability.Ingestor
	syncLog  synclog.Repository
	logger   zerolog.Logger
}

// New creates a Collector.
func New(cfg Config) *Collector {
	return &Collector{
		feed:     cfg.Feed,
		stations: cfg.Stations,
		ingestor: cfg.Ingestor,
		syncLog:  cfg.SyncLog,
		logger:   cfg.Logger.With().Str("component", "collector").Logger(),
	}
}

// SyncResult summarizes one registry sync.
type SyncResult struct {
	Created     int
	Updated     int
	Deactivated int
	Skipped     int
}

// SyncStations reconciles the station registry against the feed: stations
// seen for the first time are created, drifted names, coordinates or
// capacities are corrected, and registered stations absent from the feed are
// deactivated. Feed records that fail validation are skipped and logged, not
// fatal.
func (c *Collector) SyncStations(ctx context.Context) (*SyncResult, error) {
	feedStations, err := c.feed.FetchStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	result := &SyncResult{}
	present := make(map[string]bool, len(feedStations))

	for _, fs := range feedStations {
		present[fs.Info.StationID] = true

		existing, err := c.stations.GetByExternalID(ctx, fs.Info.StationID)
		if err != nil {
			if !errors.Is(err, station.ErrStationNotFound) {
				return nil, fmt.Errorf("resolving station %q: %w", fs.Info.StationID, err)
			}

			created, err := station.New(fs.Info.StationID, fs.Info.Name, fs.Info.Lat, fs.Info.Lon, fs.Info.Capacity)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Str("station_id", fs.Info.StationID).
					Msg("skipping invalid feed station")
				result.Skipped++
				continue
			}
			if err := c.stations.Create(ctx, created); err != nil {
				return nil, fmt.Errorf("creating station %q: %w", fs.Info.StationID, err)
			}
			result.Created++
			continue
		}

		changed, err := c.reconcile(existing, fs.Info)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("station_id", fs.Info.StationID).
				Msg("skipping invalid feed correction")
			result.Skipped++
			continue
		}
		if changed {
			if err := c.stations.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("updating station %q: %w", fs.Info.StationID, err)
			}
			result.Updated++
		}
	}

	// Deactivate registered stations the feed no longer carries.
	registered, err := c.stations.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	for _, st := range registered {
		if present[st.ExternalID] {
			continue
		}
		st.IsActive = false
		if err := c.stations.Update(ctx, st); err != nil {
			return nil, fmt.Errorf("deactivating station %q: %w", st.ExternalID, err)
		}
		result.Deactivated++
	}

	c.logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deactivated", result.Deactivated).
		Int("skipped", result.Skipped).
		Msg("station registry synced")

	return result, nil
}

// reconcile applies feed corrections to an existing station. Returns whether
// anything changed.
func (c *Collector) reconcile(st *station.Station, info gbfs.StationInfo) (bool, error) {
	changed := false

	if st.Coordinate.Lat != info.Lat || st.Coordinate.Lon != info.Lon {
		if err := st.SetCoordinate(info.Lat, info.Lon); err != nil {
			return false, err
		}
		changed = true
	}
	if info.Capacity > 0 && st.TotalDocks != info.Capacity {
		if err := st.SetCapacity(info.Capacity); err != nil {
			return false, err
		}
		changed = true
	}
	if info.Name != "" && st.Name != info.Name {
		st.Name = info.Name
		changed = true
	}
	if !st.IsActive {
		// Station came back after a deactivation.
		st.IsActive = true
		changed = true
	}

	return changed, nil
}

// CollectAvailability fetches live status and ingests it as snapshots,
// recording the run in the sync log. A fetch or storage failure is logged as
// a failed run and returned; rejected observations downgrade the run to
// partial but do not fail it.
func (c *Collector) CollectAvailability(ctx context.Context) (*synclog.Entry, error) {
	started := time.Now()

	feedStations, err := c.feed.FetchStations(ctx)
	if err != nil {
		return c.recordFailure(ctx, started, fmt.Errorf("fetching feed: %w", err))
	}

	observations := make([]availability.Observation, 0, len(feedStations))
	for _, fs := range feedStations {
		// Stations not renting report noise, not availability.
		if !fs.Status.IsInstalled || !fs.Status.IsRenting {
			continue
		}
		observedAt := fs.ReportedAt
		if observedAt.IsZero() {
			observedAt = time.Now().UTC()
		}
		observations = append(observations, availability.Observation{
			ExternalStationID: fs.Info.StationID,
			BikesAvailable:    fs.Status.BikesAvailable,
			DocksAvailable:    fs.Status.DocksAvailable,
			IsRenting:         fs.Status.IsRenting,
			IsReturning:       fs.Status.IsReturning,
			ObservedAt:        observedAt,
		})
	}

	if len(observations) == 0 {
		return c.recordFailure(ctx, started, errors.New("feed returned no rentable stations"))
	}

	ingested, err := c.ingestor.Ingest(ctx, observations)
	if err != nil {
		return c.recordFailure(ctx, started, fmt.Errorf("ingesting observations: %w", err))
	}

	status := synclog.StatusSuccess
	if len(ingested.Rejected) > 0 {
		status = synclog.StatusPartial
	}

	entry := synclog.NewEntry(status)
	entry.StationsUpdated = len(feedStations)
	entry.SnapshotsCreated = ingested.Accepted
	entry.ResponseTimeMS = time.Since(started).Milliseconds()
	if err := c.syncLog.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording sync log: %w", err)
	}

	c.logger.Info().
		Str("status", string(status)).
		Int("snapshots", ingested.Accepted).
		Int("rejected", len(ingested.Rejected)).
		Int64("response_time_ms", entry.ResponseTimeMS).
		Msg("availability collected")

	return entry, nil
}

func (c *Collector) recordFailure(ctx context.Context, started time.Time, cause error) (*synclog.Entry, error) {
	entry := synclog.NewEntry(synclog.StatusFailed)
	entry.ResponseTimeMS = time.Since(started).Milliseconds()
	msg := cause.Error()
	entry.ErrorMessage = &msg

	if err := c.syncLog.Create(ctx, entry); err != nil {
		c.logger.Error().Err(err).Msg("failed to record failed run")
	}

	c.logger.Error().Err(cause).Msg("availability collection failed")
	return entry, cause
}

// HealthReport summarizes recent collection runs.
func (c *Collector) HealthReport(ctx context.Context, recentRuns int) (*synclog.Report, error) {
	entries, err := c.syncLog.ListRecent(ctx, recentRuns)
	if err != nil {
		return nil, fmt.Errorf("listing sync log: %w", err)
	}
	return synclog.BuildReport(entries), nil
}
