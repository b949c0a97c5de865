// Package geo provides great-circle distance math and the spatial index used
// for nearest-station ranking.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusKM is the IUGG mean Earth radius.
const EarthRadiusKM = 6371.0088

// ErrInvalidCoordinate is returned for non-finite or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// NewPoint validates lat/lon and returns a Point.
func NewPoint(lat, lon float64) (Point, error) {
	if err := ValidateCoordinate(lat, lon); err != nil {
		return Point{}, err
	}
	return Point{Lat: lat, Lon: lon}, nil
}

// ValidateCoordinate rejects NaN, infinite and out-of-range coordinates.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return ErrInvalidCoordinate
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// HaversineKM returns the great-circle distance between two points in
// kilometers. Station density can span city-scale longitude compression at
// higher latitudes, so a flat-plane approximation is not acceptable here.
func HaversineKM(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKM * c
}
