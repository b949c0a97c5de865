package models

import (
	"math"

	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/lookup"
	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
)

// Station is the API representation of a dock station.
type Station struct {
	ID         int64   `json:"id"`
	ExternalID string  `json:"externalId"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	TotalDocks int     `json:"totalDocks"`
	IsActive   bool    `json:"isActive"`
}

// NewStation maps a domain station to its API representation.
func NewStation(s *station.Station) Station {
	return Station{
		ID:         s.ID,
		ExternalID: s.ExternalID,
		Name:       s.Name,
		Lat:        s.Coordinate.Lat,
		Lon:        s.Coordinate.Lon,
		TotalDocks: s.TotalDocks,
		IsActive:   s.IsActive,
	}
}

// StationList is the response for the station listing endpoint.
type StationList struct {
	Stations []Station `json:"stations"`
	Count    int       `json:"count"`
}

// NearbyStation is one ranked result from the nearby query.
type NearbyStation struct {
	Station              Station            `json:"station"`
	DistanceKM           float64            `json:"distanceKm"`
	EstimatedWalkMinutes float64            `json:"estimatedWalkMinutes"`
	HasReliabilityData   bool               `json:"hasReliabilityData"`
	Reliability          []ReliabilityScore `json:"reliability"`
}

// NewNearbyStation maps a lookup result to its API representation.
func NewNearbyStation(r *lookup.StationReliability) NearbyStation {
	scores := make([]ReliabilityScore, 0, len(r.Scores))
	for _, s := range r.Scores {
		scores = append(scores, NewReliabilityScore(s))
	}
	return NearbyStation{
		Station:              NewStation(r.Station),
		DistanceKM:           r.DistanceKM,
		EstimatedWalkMinutes: r.EstimatedWalkMinutes,
		HasReliabilityData:   r.HasData,
		Reliability:          scores,
	}
}

// NearbyResponse is the response for the nearby query.
type NearbyResponse struct {
	Stations []NearbyStation `json:"stations"`
	Count    int             `json:"count"`
}

// AvailabilitySnapshot is the API representation of one availability reading.
type AvailabilitySnapshot struct {
	BikesAvailable int       `json:"bikesAvailable"`
	DocksAvailable int       `json:"docksAvailable"`
	IsRenting      bool      `json:"isRenting"`
	IsReturning    bool      `json:"isReturning"`
	ObservedAt     Timestamp `json:"observedAt"`
}

// NewAvailabilitySnapshot maps a domain snapshot to its API representation.
func NewAvailabilitySnapshot(s *availability.Snapshot) AvailabilitySnapshot {
	return AvailabilitySnapshot{
		BikesAvailable: s.BikesAvailable,
		DocksAvailable: s.DocksAvailable,
		IsRenting:      s.IsRenting,
		IsReturning:    s.IsReturning,
		ObservedAt:     Timestamp(s.ObservedAt),
	}
}

// AvailabilityResponse is the response for the station availability endpoint.
type AvailabilityResponse struct {
	StationID int64                  `json:"stationId"`
	Current   *AvailabilitySnapshot  `json:"current"`
	History   []AvailabilitySnapshot `json:"history,omitempty"`
}

// ReliabilitySummary condenses a station's scores into one line: the
// sample-weighted average and the best and worst hours of the day.
type ReliabilitySummary struct {
	OverallPct float64 `json:"overallPct"`
	BestHour   int     `json:"bestHour"`
	WorstHour  int     `json:"worstHour"`
}

// NewReliabilitySummary computes a summary over a station's scores. Returns
// nil when there are none.
func NewReliabilitySummary(scores []*reliability.Score) *ReliabilitySummary {
	if len(scores) == 0 {
		return nil
	}

	summary := &ReliabilitySummary{
		BestHour:  scores[0].Hour,
		WorstHour: scores[0].Hour,
	}
	var weighted float64
	var samples int
	bestPct, worstPct := scores[0].ReliabilityPct, scores[0].ReliabilityPct
	for _, s := range scores {
		weighted += s.ReliabilityPct * float64(s.SampleSize)
		samples += s.SampleSize
		if s.ReliabilityPct > bestPct {
			bestPct, summary.BestHour = s.ReliabilityPct, s.Hour
		}
		if s.ReliabilityPct < worstPct {
			worstPct, summary.WorstHour = s.ReliabilityPct, s.Hour
		}
	}
	if samples > 0 {
		summary.OverallPct = math.Round(weighted/float64(samples)*100) / 100
	}
	return summary
}

// StationDetail is the station detail response: the station, its latest
// availability reading and a reliability summary when scores exist.
type StationDetail struct {
	Station     Station               `json:"station"`
	Current     *AvailabilitySnapshot `json:"current"`
	Reliability *ReliabilitySummary   `json:"reliability"`
}
