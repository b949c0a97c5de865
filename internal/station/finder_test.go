package station

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockpulse/dockpulse/internal/geo"
)

func seedRepo(t *testing.T) *InMemoryRepository {
	t.Helper()
	repo := NewInMemoryRepository()

	// Gdansk city centre and two stations progressively further north.
	seed := []struct {
		externalID string
		name       string
		lat, lon   float64
		docks      int
		active     bool
	}{
		{"gbfs-001", "Main Station", 54.3520, 18.6466, 20, true},
		{"gbfs-002", "Oliwa Park", 54.4102, 18.5606, 12, true},
		{"gbfs-003", "Sopot Pier", 54.4446, 18.5731, 16, true},
		{"gbfs-004", "Depot (closed)", 54.3530, 18.6470, 8, false},
	}
	for _, s := range seed {
		st, err := New(s.externalID, s.name, s.lat, s.lon, s.docks)
		require.NoError(t, err)
		st.IsActive = s.active
		require.NoError(t, repo.Create(context.Background(), st))
	}
	return repo
}

func newTestFinder(t *testing.T, repo Repository) *Finder {
	t.Helper()
	return NewFinder(FinderConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
}

func TestFinderNearestOrdersByDistance(t *testing.T) {
	f := newTestFinder(t, seedRepo(t))

	results, err := f.Nearest(context.Background(), 54.3520, 18.6466, 10, false)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "gbfs-001", results[0].Station.ExternalID)
	assert.InDelta(t, 0.0, results[0].DistanceKM, 0.001)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].DistanceKM, results[i-1].DistanceKM,
			"results must be in ascending distance order")
	}
}

func TestFinderNearestActiveOnly(t *testing.T) {
	f := newTestFinder(t, seedRepo(t))

	results, err := f.Nearest(context.Background(), 54.3520, 18.6466, 10, true)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.True(t, r.Station.IsActive)
	}
}

func TestFinderNearestRejectsNonPositiveLimit(t *testing.T) {
	f := newTestFinder(t, seedRepo(t))

	for _, limit := range []int{0, -1, -20} {
		_, err := f.Nearest(context.Background(), 54.3520, 18.6466, limit, false)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
}

func TestFinderNearestClampsLimit(t *testing.T) {
	repo := NewInMemoryRepository()
	for i := 0; i < 30; i++ {
		st, err := New(
			fmt.Sprintf("gbfs-%03d", i),
			"Station",
			54.0+float64(i)*0.01, 18.6, 10,
		)
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), st))
	}
	f := newTestFinder(t, repo)

	results, err := f.Nearest(context.Background(), 54.0, 18.6, 500, false)
	require.NoError(t, err)
	assert.Len(t, results, MaxLimit, "oversized limits are clamped, not rejected")
}

func TestFinderNearestInvalidCoordinate(t *testing.T) {
	f := newTestFinder(t, seedRepo(t))

	_, err := f.Nearest(context.Background(), 91.0, 18.6, 5, false)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	_, err = f.Nearest(context.Background(), 54.0, 181.0, 5, false)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestFinderNearestEmptyRegistry(t *testing.T) {
	f := newTestFinder(t, NewInMemoryRepository())

	results, err := f.Nearest(context.Background(), 54.3520, 18.6466, 5, false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFinderNearestDeterministicTieBreak(t *testing.T) {
	repo := NewInMemoryRepository()
	// Three stations at the identical coordinate. Order falls back to
	// ascending internal id.
	for _, ext := range []string{"tie-a", "tie-b", "tie-c"} {
		st, err := New(ext, "Colocated", 54.40, 18.60, 10)
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), st))
	}
	f := newTestFinder(t, repo)

	first, err := f.Nearest(context.Background(), 54.35, 18.65, 3, false)
	require.NoError(t, err)
	second, err := f.Nearest(context.Background(), 54.35, 18.65, 3, false)
	require.NoError(t, err)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].Station.ID, second[i].Station.ID)
	}
	assert.Less(t, first[0].Station.ID, first[1].Station.ID)
	assert.Less(t, first[1].Station.ID, first[2].Station.ID)
}
