package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockpulse/dockpulse/internal/geo"
)

// referenceHaversine is an independently written haversine used to
// cross-check the production distance function.
func referenceHaversine(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371.0088
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Pow(math.Sin(dLon/2), 2)
	return 2 * r * math.Asin(math.Sqrt(a))
}

func TestHaversineKM_NewYorkReference(t *testing.T) {
	// Lower Manhattan to East Village, roughly 6.4 km apart.
	a := geo.Point{Lat: 40.7128, Lon: -74.0060}
	b := geo.Point{Lat: 40.7306, Lon: -73.9352}

	got := geo.HaversineKM(a, b)
	want := referenceHaversine(a.Lat, a.Lon, b.Lat, b.Lon)

	assert.InEpsilon(t, want, got, 0.001, "must match reference haversine within 0.1%%")
	assert.Greater(t, got, 6.0)
	assert.Less(t, got, 7.0)
}

func TestHaversineKM_ZeroDistance(t *testing.T) {
	p := geo.Point{Lat: 54.352, Lon: 18.6466}
	assert.Equal(t, 0.0, geo.HaversineKM(p, p))
}

func TestHaversineKM_Symmetric(t *testing.T) {
	a := geo.Point{Lat: 54.352, Lon: 18.6466}
	b := geo.Point{Lat: 54.4416, Lon: 18.5601}
	assert.InDelta(t, geo.HaversineKM(a, b), geo.HaversineKM(b, a), 1e-12)
}

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid", 54.352, 18.6466, false},
		{"boundary lat", 90, 180, false},
		{"lat too high", 90.001, 0, true},
		{"lat too low", -90.001, 0, true},
		{"lon too high", 0, 180.001, true},
		{"lon too low", 0, -180.001, true},
		{"NaN lat", math.NaN(), 0, true},
		{"NaN lon", 0, math.NaN(), true},
		{"infinite lat", math.Inf(1), 0, true},
		{"infinite lon", 0, math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := geo.ValidateCoordinate(tt.lat, tt.lon)
			if tt.wantErr {
				require.ErrorIs(t, err, geo.ErrInvalidCoordinate)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
