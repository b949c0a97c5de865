// Package station provides the dock-station registry and the nearest-station
// finder.
package station

import (
	"errors"
	"time"

	"github.com/dockpulse/dockpulse/internal/geo"
)

// Domain errors.
var (
	ErrStationNotFound  = errors.New("station not found")
	ErrDuplicateStation = errors.New("station with this external id already exists")
	ErrInvalidCapacity  = errors.New("total docks must be positive")
	ErrInvalidLimit     = errors.New("limit must be positive")
)

// Station is a fixed dock station. Stations are created on first sight from
// the external feed and never physically deleted; decommissioned stations are
// deactivated so their history stays queryable.
type Station struct {
	// ID is the internal identifier.
	ID int64

	// ExternalID is the stable id assigned by the bike-share feed. Unique.
	ExternalID string

	// Name is the display name from the feed.
	Name string

	// Coordinate is the station location, WGS84 decimal degrees.
	Coordinate geo.Point

	// TotalDocks is the dock capacity. Always positive.
	TotalDocks int

	// IsActive is false for stations no longer present in the feed.
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New constructs a Station, deriving the spatial representation explicitly
// rather than leaving it to a storage-side trigger.
func New(externalID, name string, lat, lon float64, totalDocks int) (*Station, error) {
	s := &Station{
		ExternalID: externalID,
		Name:       name,
		IsActive:   true,
	}
	if err := s.SetCoordinate(lat, lon); err != nil {
		return nil, err
	}
	if err := s.SetCapacity(totalDocks); err != nil {
		return nil, err
	}
	return s, nil
}

// SetCoordinate validates and updates the station location.
func (s *Station) SetCoordinate(lat, lon float64) error {
	p, err := geo.NewPoint(lat, lon)
	if err != nil {
		return err
	}
	s.Coordinate = p
	return nil
}

// SetCapacity validates and updates the dock capacity.
func (s *Station) SetCapacity(totalDocks int) error {
	if totalDocks <= 0 {
		return ErrInvalidCapacity
	}
	s.TotalDocks = totalDocks
	return nil
}
