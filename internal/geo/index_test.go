package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockpulse/dockpulse/internal/geo"
)

func gdanskSites() []geo.Site {
	return []geo.Site{
		{ID: 1, Point: geo.Point{Lat: 54.3520, Lon: 18.6466}}, // city centre
		{ID: 2, Point: geo.Point{Lat: 54.3611, Lon: 18.6387}}, // ~1.1km north-west
		{ID: 3, Point: geo.Point{Lat: 54.4416, Lon: 18.5601}}, // Sopot, ~11km
		{ID: 4, Point: geo.Point{Lat: 54.5189, Lon: 18.5305}}, // Gdynia, ~20km
	}
}

func TestScanIndex_OrdersByDistance(t *testing.T) {
	idx := geo.NewScanIndex(gdanskSites())

	hits := idx.Nearest(geo.Point{Lat: 54.3520, Lon: 18.6466}, 10)
	require.Len(t, hits, 4)

	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, int64(2), hits[1].ID)
	assert.Equal(t, int64(3), hits[2].ID)
	assert.Equal(t, int64(4), hits[3].ID)

	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].DistanceKM, hits[i].DistanceKM)
	}
}

func TestScanIndex_LimitTruncates(t *testing.T) {
	idx := geo.NewScanIndex(gdanskSites())

	hits := idx.Nearest(geo.Point{Lat: 54.3520, Lon: 18.6466}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, int64(2), hits[1].ID)
}

func TestScanIndex_TiesBrokenByAscendingID(t *testing.T) {
	// Two sites at the exact same coordinate, inserted out of id order.
	sites := []geo.Site{
		{ID: 9, Point: geo.Point{Lat: 54.40, Lon: 18.60}},
		{ID: 3, Point: geo.Point{Lat: 54.40, Lon: 18.60}},
		{ID: 7, Point: geo.Point{Lat: 54.40, Lon: 18.60}},
	}
	idx := geo.NewScanIndex(sites)

	hits := idx.Nearest(geo.Point{Lat: 54.35, Lon: 18.64}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, int64(3), hits[0].ID)
	assert.Equal(t, int64(7), hits[1].ID)
	assert.Equal(t, int64(9), hits[2].ID)
}

func TestScanIndex_Deterministic(t *testing.T) {
	idx := geo.NewScanIndex(gdanskSites())
	origin := geo.Point{Lat: 54.38, Lon: 18.61}

	first := idx.Nearest(origin, 4)
	second := idx.Nearest(origin, 4)
	assert.Equal(t, first, second)
}

func TestScanIndex_EmptyAndZeroLimit(t *testing.T) {
	assert.Nil(t, geo.NewScanIndex(nil).Nearest(geo.Point{}, 5))
	assert.Nil(t, geo.NewScanIndex(gdanskSites()).Nearest(geo.Point{}, 0))
}

func TestScanIndex_CopiesSites(t *testing.T) {
	sites := gdanskSites()
	idx := geo.NewScanIndex(sites)

	// Mutating the caller's slice must not change the index.
	sites[0].Point = geo.Point{Lat: 0, Lon: 0}

	hits := idx.Nearest(geo.Point{Lat: 54.3520, Lon: 18.6466}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Less(t, hits[0].DistanceKM, 0.01)
}
