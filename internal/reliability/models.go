// Package reliability computes and serves per-station availability
// reliability scores, bucketed by hour of day and day type.
package reliability

import (
	"errors"
	"math"
	"time"

	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// Domain errors.
var (
	ErrInvalidWindow = errors.New("aggregation window must be positive")
)

// DefaultMinSamples is the sample count below which a score is reported with
// low confidence. Scores below the threshold are still returned; confidence
// is a signal, not a filter.
const DefaultMinSamples = 4

// Confidence expresses how much weight a score deserves given its sample
// size.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceFor maps a sample size to a confidence level given the minimum
// sample threshold.
func ConfidenceFor(sampleSize, minSamples int) Confidence {
	switch {
	case sampleSize < minSamples:
		return ConfidenceLow
	case sampleSize < 5*minSamples:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Score is one reliability data point for a (station, hour, day type) key.
type Score struct {
	ID        int64
	StationID int64

	// Hour is the local wall-clock hour, 0-23.
	Hour int

	// DayType partitions weekdays from weekends.
	DayType timebucket.DayType

	// ReliabilityPct is the percentage of snapshots in the bucket that had
	// at least one bike available, rounded to 2 decimal places.
	ReliabilityPct float64

	// AvgBikes is the mean bikes available across the bucket, rounded to
	// 2 decimal places.
	AvgBikes float64

	// SampleSize is the number of snapshots behind this score.
	SampleSize int

	Confidence Confidence

	// PeriodStart and PeriodEnd bound the snapshot window the score was
	// computed over.
	PeriodStart time.Time
	PeriodEnd   time.Time

	CalculatedAt time.Time
}

// round2 rounds to 2 decimal places using banker's rounding so repeated
// aggregation of the same window never drifts.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
