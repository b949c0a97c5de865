package models

import (
	"github.com/dockpulse/dockpulse/internal/reliability"
)

// ReliabilityScore is the API representation of one (hour, day type) score.
type ReliabilityScore struct {
	Hour           int       `json:"hour"`
	DayType        string    `json:"dayType"`
	ReliabilityPct float64   `json:"reliabilityPct"`
	AvgBikes       float64   `json:"avgBikes"`
	SampleSize     int       `json:"sampleSize"`
	Confidence     string    `json:"confidence"`
	PeriodStart    Timestamp `json:"periodStart"`
	PeriodEnd      Timestamp `json:"periodEnd"`
	CalculatedAt   Timestamp `json:"calculatedAt"`
}

// NewReliabilityScore maps a domain score to its API representation.
func NewReliabilityScore(s *reliability.Score) ReliabilityScore {
	return ReliabilityScore{
		Hour:           s.Hour,
		DayType:        string(s.DayType),
		ReliabilityPct: s.ReliabilityPct,
		AvgBikes:       s.AvgBikes,
		SampleSize:     s.SampleSize,
		Confidence:     string(s.Confidence),
		PeriodStart:    Timestamp(s.PeriodStart),
		PeriodEnd:      Timestamp(s.PeriodEnd),
		CalculatedAt:   Timestamp(s.CalculatedAt),
	}
}

// ReliabilityResponse is the response for the station reliability endpoint.
type ReliabilityResponse struct {
	StationID int64              `json:"stationId"`
	Scores    []ReliabilityScore `json:"scores"`
	HasData   bool               `json:"hasData"`
}
