package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/timebucket"
)

type fixture struct {
	stations *station.InMemoryRepository
	scores   reliability.Repository
	svc      *Service
}

func newFixture(t *testing.T, scores reliability.Repository) *fixture {
	t.Helper()

	stations := station.NewInMemoryRepository()
	seed := []struct {
		externalID string
		lat, lon   float64
	}{
		{"gbfs-001", 54.3520, 18.6466},
		{"gbfs-002", 54.4102, 18.5606},
		{"gbfs-003", 54.4446, 18.5731},
	}
	for _, s := range seed {
		st, err := station.New(s.externalID, "Station "+s.externalID, s.lat, s.lon, 12)
		require.NoError(t, err)
		require.NoError(t, stations.Create(context.Background(), st))
	}

	finder := station.NewFinder(station.FinderConfig{
		Repository: stations,
		Logger:     zerolog.Nop(),
	})

	return &fixture{
		stations: stations,
		scores:   scores,
		svc: NewService(Config{
			Finder: finder,
			Scores: scores,
			Logger: zerolog.Nop(),
		}),
	}
}

func seedScore(t *testing.T, repo reliability.Repository, stationID int64, hour int, dayType timebucket.DayType, pct float64) {
	t.Helper()
	existing, err := repo.ListForStation(context.Background(), stationID, nil)
	require.NoError(t, err)
	existing = append(existing, &reliability.Score{
		StationID:      stationID,
		Hour:           hour,
		DayType:        dayType,
		ReliabilityPct: pct,
		AvgBikes:       2.5,
		SampleSize:     10,
		Confidence:     reliability.ConfidenceMedium,
		PeriodStart:    time.Now().AddDate(0, 0, -30),
		PeriodEnd:      time.Now(),
		CalculatedAt:   time.Now(),
	})
	require.NoError(t, repo.ReplaceForStation(context.Background(), stationID, existing))
}

func TestNearbyJoinsScoresInDistanceOrder(t *testing.T) {
	scores := reliability.NewInMemoryRepository()
	f := newFixture(t, scores)

	seedScore(t, scores, 1, 8, timebucket.DayTypeWeekday, 70.0)
	seedScore(t, scores, 2, 8, timebucket.DayTypeWeekday, 55.5)

	results, err := f.svc.Nearby(context.Background(), 54.3520, 18.6466, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Distance order from the city centre: station 1, then 2, then 3.
	assert.Equal(t, int64(1), results[0].Station.ID)
	assert.Equal(t, int64(2), results[1].Station.ID)
	assert.Equal(t, int64(3), results[2].Station.ID)

	assert.True(t, results[0].HasData)
	require.Len(t, results[0].Scores, 1)
	assert.InDelta(t, 70.0, results[0].Scores[0].ReliabilityPct, 0.0001)

	assert.True(t, results[1].HasData)
	assert.False(t, results[2].HasData, "stations without data stay ranked with an explicit marker")
	assert.Empty(t, results[2].Scores)
}

func TestNearbyWalkTimeEstimate(t *testing.T) {
	scores := reliability.NewInMemoryRepository()
	f := newFixture(t, scores)

	results, err := f.svc.Nearby(context.Background(), 54.3520, 18.6466, 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		// 5 km/h walking speed: minutes = distance / 5 * 60.
		assert.InDelta(t, r.DistanceKM/5.0*60, r.EstimatedWalkMinutes, 0.0001)
	}
	assert.InDelta(t, 0.0, results[0].EstimatedWalkMinutes, 0.001)
}

func TestNearbyDayTypeFilter(t *testing.T) {
	scores := reliability.NewInMemoryRepository()
	f := newFixture(t, scores)

	seedScore(t, scores, 1, 8, timebucket.DayTypeWeekday, 70.0)
	seedScore(t, scores, 1, 10, timebucket.DayTypeWeekend, 90.0)

	weekend := timebucket.DayTypeWeekend
	results, err := f.svc.Nearby(context.Background(), 54.3520, 18.6466, 1, &weekend)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Scores, 1)
	assert.Equal(t, timebucket.DayTypeWeekend, results[0].Scores[0].DayType)
}

func TestNearbyInvalidDayType(t *testing.T) {
	f := newFixture(t, reliability.NewInMemoryRepository())

	bogus := timebucket.DayType("holiday")
	_, err := f.svc.Nearby(context.Background(), 54.3520, 18.6466, 3, &bogus)
	assert.ErrorIs(t, err, ErrInvalidDayType)
}

// failingScores simulates score storage going away mid-query.
type failingScores struct{}

func (failingScores) ReplaceForStation(context.Context, int64, []*reliability.Score) error {
	return errors.New("unreachable")
}

func (failingScores) ListForStation(context.Context, int64, *timebucket.DayType) ([]*reliability.Score, error) {
	return nil, errors.New("connection refused")
}

func TestNearbyStoreFailureFailsWholeQuery(t *testing.T) {
	f := newFixture(t, failingScores{})

	results, err := f.svc.Nearby(context.Background(), 54.3520, 18.6466, 3, nil)
	require.Error(t, err)
	assert.Nil(t, results, "a partial ranking must never be returned")
}

func TestNearbyPropagatesFinderErrors(t *testing.T) {
	f := newFixture(t, reliability.NewInMemoryRepository())

	_, err := f.svc.Nearby(context.Background(), 54.3520, 18.6466, 0, nil)
	assert.ErrorIs(t, err, station.ErrInvalidLimit)
}
