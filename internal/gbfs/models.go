// Package gbfs fetches station information and live status from a GBFS
// (General Bikeshare Feed Specification) publisher.
package gbfs

import (
	"errors"
	"time"
)

// Feed errors.
var (
	ErrFeedUnavailable = errors.New("gbfs feed unavailable")
	ErrMalformedFeed   = errors.New("gbfs feed payload malformed")
)

// StationInfo is the static half of a station record, from
// station_information.json.
type StationInfo struct {
	StationID string  `json:"station_id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Capacity  int     `json:"capacity"`
}

// StationStatus is the live half of a station record, from
// station_status.json.
type StationStatus struct {
	StationID      string `json:"station_id"`
	BikesAvailable int    `json:"num_bikes_available"`
	DocksAvailable int    `json:"num_docks_available"`
	IsInstalled    bool   `json:"is_installed"`
	IsRenting      bool   `json:"is_renting"`
	IsReturning    bool   `json:"is_returning"`
	LastReported   int64  `json:"last_reported"`
}

// FeedStation is a station_information record joined with its matching
// station_status record by station id.
type FeedStation struct {
	Info   StationInfo
	Status StationStatus

	// ReportedAt is Status.LastReported as a UTC timestamp.
	ReportedAt time.Time
}

// envelope is the outer GBFS wrapper common to both feeds.
type envelope[T any] struct {
	LastUpdated int64 `json:"last_updated"`
	TTL         int   `json:"ttl"`
	Data        struct {
		Stations []T `json:"stations"`
	} `json:"data"`
}
