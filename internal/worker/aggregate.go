// Package worker runs DockPulse background jobs: feed collection, station
// sync, reliability aggregation and snapshot retention.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
)

// defaultAggregateWorkers bounds concurrent per-station aggregations.
const defaultAggregateWorkers = 4

// AggregateStats summarizes one aggregation sweep.
type AggregateStats struct {
	StationsAggregated int
	ScoresWritten      int
	Failed             int
	Duration           time.Duration
}

// AggregateRunner recomputes reliability scores for every active station
// using a bounded worker pool.
type AggregateRunner struct {
	stations   station.Repository
	aggregator *reliability.Aggregator
	workers    int
	log        zerolog.Logger
}

// AggregateRunnerConfig holds the dependencies for an AggregateRunner.
type AggregateRunnerConfig struct {
	Stations   station.Repository
	Aggregator *reliability.Aggregator

	// Workers is the pool size. Zero means the default.
	Workers int

	Logger zerolog.Logger
}

// NewAggregateRunner creates a new AggregateRunner.
func NewAggregateRunner(cfg AggregateRunnerConfig) *AggregateRunner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultAggregateWorkers
	}
	return &AggregateRunner{
		stations:   cfg.Stations,
		aggregator: cfg.Aggregator,
		workers:    workers,
		log:        cfg.Logger.With().Str("component", "aggregate_runner").Logger(),
	}
}

// Run aggregates every active station over a rolling window of windowDays
// ending now. Individual station failures are logged and counted but do not
// abort the sweep.
func (r *AggregateRunner) Run(ctx context.Context, windowDays int) (*AggregateStats, error) {
	started := time.Now()

	start, end, err := reliability.Window(started, windowDays)
	if err != nil {
		return nil, err
	}

	stations, err := r.stations.List(ctx, true)
	if err != nil {
		return nil, err
	}

	jobs := make(chan int64)
	var (
		mu    sync.Mutex
		stats AggregateStats
	)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				scores, err := r.aggregator.Aggregate(ctx, id, start, end)
				mu.Lock()
				if err != nil {
					stats.Failed++
					mu.Unlock()
					r.log.Error().Err(err).Int64("station_id", id).Msg("station aggregation failed")
					continue
				}
				stats.StationsAggregated++
				stats.ScoresWritten += len(scores)
				mu.Unlock()
			}
		}()
	}

	for _, st := range stations {
		if ctx.Err() != nil {
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
		jobs <- st.ID
	}
	close(jobs)
	wg.Wait()

	stats.Duration = time.Since(started)

	r.log.Info().
		Int("stations", stats.StationsAggregated).
		Int("scores", stats.ScoresWritten).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("aggregation sweep complete")

	return &stats, nil
}
