package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/gbfs"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/synclog"
)

// stubFeed serves a fixed set of feed stations, or an error.
type stubFeed struct {
	stations []gbfs.FeedStation
	err      error
}

func (s *stubFeed) FetchStations(context.Context) ([]gbfs.FeedStation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stations, nil
}

func feedStation(id, name string, lat, lon float64, capacity, bikes int) gbfs.FeedStation {
	return gbfs.FeedStation{
		Info: gbfs.StationInfo{StationID: id, Name: name, Lat: lat, Lon: lon, Capacity: capacity},
		Status: gbfs.StationStatus{
			StationID:      id,
			BikesAvailable: bikes,
			DocksAvailable: capacity - bikes,
			IsInstalled:    true,
			IsRenting:      true,
			IsReturning:    true,
		},
		ReportedAt: time.Now().UTC(),
	}
}

type collectorFixture struct {
	feed      *stubFeed
	stations  *station.InMemoryRepository
	snapshots *availability.InMemoryRepository
	syncLog   *synclog.InMemoryRepository
	collector *Collector
}

func newCollectorFixture(t *testing.T, feed *stubFeed) *collectorFixture {
	t.Helper()

	stations := station.NewInMemoryRepository()
	snapshots := availability.NewInMemoryRepository()
	syncLog := synclog.NewInMemoryRepository()

	ingestor := availability.NewIngestor(availability.IngestorConfig{
		Stations:  stations,
		Snapshots: snapshots,
		Logger:    zerolog.Nop(),
	})

	return &collectorFixture{
		feed:      feed,
		stations:  stations,
		snapshots: snapshots,
		syncLog:   syncLog,
		collector: New(Config{
			Feed:     feed,
			Stations: stations,
			Ingestor: ingestor,
			SyncLog:  syncLog,
			Logger:   zerolog.Nop(),
		}),
	}
}

func TestSyncStationsCreatesOnFirstSight(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
		feedStation("gbfs-002", "Oliwa Park", 54.4102, 18.5606, 12, 2),
	}}
	f := newCollectorFixture(t, feed)

	result, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Deactivated)

	st, err := f.stations.GetByExternalID(context.Background(), "gbfs-001")
	require.NoError(t, err)
	assert.Equal(t, "Main Station", st.Name)
	assert.Equal(t, 20, st.TotalDocks)
	assert.True(t, st.IsActive)
}

func TestSyncStationsCorrectsDrift(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
	}}
	f := newCollectorFixture(t, feed)

	_, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	// The feed moves the station and grows its capacity.
	feed.stations = []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station North", 54.3600, 18.6500, 24, 5),
	}

	result, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Created)

	st, err := f.stations.GetByExternalID(context.Background(), "gbfs-001")
	require.NoError(t, err)
	assert.Equal(t, "Main Station North", st.Name)
	assert.Equal(t, 24, st.TotalDocks)
	assert.InDelta(t, 54.3600, st.Coordinate.Lat, 0.00001)
}

func TestSyncStationsDeactivatesMissing(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
		feedStation("gbfs-002", "Oliwa Park", 54.4102, 18.5606, 12, 2),
	}}
	f := newCollectorFixture(t, feed)

	_, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	feed.stations = feed.stations[:1]
	result, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deactivated)

	st, err := f.stations.GetByExternalID(context.Background(), "gbfs-002")
	require.NoError(t, err)
	assert.False(t, st.IsActive, "missing stations are deactivated, not deleted")
}

func TestSyncStationsReactivatesReturning(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
	}}
	f := newCollectorFixture(t, feed)

	_, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	feed.stations = nil
	_, err = f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	feed.stations = []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
	}
	result, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	st, err := f.stations.GetByExternalID(context.Background(), "gbfs-001")
	require.NoError(t, err)
	assert.True(t, st.IsActive)
}

func TestSyncStationsSkipsInvalidRecords(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
		feedStation("gbfs-bad", "Broken", 95.0, 18.6466, 10, 0),
	}}
	f := newCollectorFixture(t, feed)

	result, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestCollectAvailabilitySuccess(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
		feedStation("gbfs-002", "Oliwa Park", 54.4102, 18.5606, 12, 0),
	}}
	f := newCollectorFixture(t, feed)

	_, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	entry, err := f.collector.CollectAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, synclog.StatusSuccess, entry.Status)
	assert.Equal(t, 2, entry.SnapshotsCreated)
	assert.Equal(t, 2, entry.StationsUpdated)

	st, err := f.stations.GetByExternalID(context.Background(), "gbfs-001")
	require.NoError(t, err)
	snap, err := f.snapshots.Latest(context.Background(), st.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 5, snap.BikesAvailable)
	assert.True(t, snap.IsRenting)
	assert.True(t, snap.IsReturning)

	recent, err := f.syncLog.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entry.ID, recent[0].ID)
}

func TestCollectAvailabilityPartialOnUnknownStations(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
	}}
	f := newCollectorFixture(t, feed)

	_, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	// A new station appears in status before anyone ran a registry sync.
	feed.stations = append(feed.stations, feedStation("gbfs-777", "Unsynced", 54.40, 18.60, 8, 3))

	entry, err := f.collector.CollectAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, synclog.StatusPartial, entry.Status)
	assert.Equal(t, 1, entry.SnapshotsCreated)
}

func TestCollectAvailabilitySkipsNotRenting(t *testing.T) {
	closed := feedStation("gbfs-002", "Closed", 54.4102, 18.5606, 12, 2)
	closed.Status.IsRenting = false

	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
		closed,
	}}
	f := newCollectorFixture(t, feed)

	_, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	entry, err := f.collector.CollectAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, synclog.StatusSuccess, entry.Status)
	assert.Equal(t, 1, entry.SnapshotsCreated)
}

func TestCollectAvailabilityRecordsFailedRun(t *testing.T) {
	feed := &stubFeed{err: errors.New("connection refused")}
	f := newCollectorFixture(t, feed)

	entry, err := f.collector.CollectAvailability(context.Background())
	require.Error(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, synclog.StatusFailed, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "connection refused")

	recent, err := f.syncLog.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestHealthReport(t *testing.T) {
	feed := &stubFeed{stations: []gbfs.FeedStation{
		feedStation("gbfs-001", "Main Station", 54.3520, 18.6466, 20, 5),
	}}
	f := newCollectorFixture(t, feed)

	_, err := f.collector.SyncStations(context.Background())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.collector.CollectAvailability(context.Background())
		require.NoError(t, err)
	}
	feed.err = errors.New("boom")
	_, _ = f.collector.CollectAvailability(context.Background())

	report, err := f.collector.HealthReport(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, synclog.HealthHealthy, report.Health)
	assert.Equal(t, 5, report.TotalRuns)
}
