package reliability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// DefaultWindowDays is the rolling snapshot window aggregation runs over when
// the caller does not specify one.
const DefaultWindowDays = 30

// AggregatorConfig holds dependencies and tuning for the Aggregator.
type AggregatorConfig struct {
	Stations  station.Repository
	Snapshots availability.Repository
	Scores    Repository

	// MinSamples is the confidence threshold. Defaults to
	// DefaultMinSamples.
	MinSamples int

	Logger zerolog.Logger
}

// Aggregator recomputes reliability scores from availability snapshots.
// Aggregation is idempotent: re-running over the same snapshot window
// produces byte-identical scores.
type Aggregator struct {
	stations   station.Repository
	snapshots  availability.Repository
	scores     Repository
	minSamples int
	logger     zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	minSamples := cfg.MinSamples
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &Aggregator{
		stations:   cfg.Stations,
		snapshots:  cfg.Snapshots,
		scores:     cfg.Scores,
		minSamples: minSamples,
		logger:     cfg.Logger.With().Str("component", "reliability_aggregator").Logger(),
	}
}

// Window returns the [start, end) aggregation window ending now and spanning
// the given number of days.
func Window(now time.Time, days int) (start, end time.Time, err error) {
	if days <= 0 {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	end = now.UTC()
	start = end.AddDate(0, 0, -days)
	return start, end, nil
}

// bucketKey identifies one aggregation partition. Snapshots carry finer
// buckets (quarter-hour slots) than scores are kept at.
type bucketKey struct {
	hour    int
	dayType timebucket.DayType
}

type bucketAccum struct {
	samples   int
	withBikes int
	bikeSum   int
}

// Aggregate recomputes and stores the station's scores over [start, end).
// The stored set is replaced wholesale, so buckets with no snapshots in the
// window disappear rather than lingering with stale values. Returns
// station.ErrStationNotFound for an unregistered station. A window with no
// snapshots yields an empty score set, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, stationID int64, start, end time.Time) ([]*Score, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}

	if _, err := a.stations.Get(ctx, stationID); err != nil {
		return nil, err
	}

	snapshots, err := a.snapshots.ListRange(ctx, stationID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	accum := make(map[bucketKey]*bucketAccum)
	for _, snap := range snapshots {
		key := bucketKey{hour: snap.Bucket.Hour, dayType: snap.Bucket.DayType}
		acc := accum[key]
		if acc == nil {
			acc = &bucketAccum{}
			accum[key] = acc
		}
		acc.samples++
		if snap.HasBikes() {
			acc.withBikes++
		}
		acc.bikeSum += snap.BikesAvailable
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	calculatedAt := time.Now().UTC()
	scores := make([]*Score, 0, len(accum))
	for key, acc := range accum {
		scores = append(scores, &Score{
			StationID:      stationID,
			Hour:           key.hour,
			DayType:        key.dayType,
			ReliabilityPct: round2(100 * float64(acc.withBikes) / float64(acc.samples)),
			AvgBikes:       round2(float64(acc.bikeSum) / float64(acc.samples)),
			SampleSize:     acc.samples,
			Confidence:     ConfidenceFor(acc.samples, a.minSamples),
			PeriodStart:    start.UTC(),
			PeriodEnd:      end.UTC(),
			CalculatedAt:   calculatedAt,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].DayType != scores[j].DayType {
			return scores[i].DayType == timebucket.DayTypeWeekday
		}
		return scores[i].Hour < scores[j].Hour
	})

	if err := a.scores.ReplaceForStation(ctx, stationID, scores); err != nil {
		return nil, fmt.Errorf("replacing scores: %w", err)
	}

	a.logger.Debug().
		Int64("station_id", stationID).
		Int("snapshots", len(snapshots)).
		Int("buckets", len(scores)).
		Time("window_start", start).
		Time("window_end", end).
		Msg("station aggregated")

	return scores, nil
}
