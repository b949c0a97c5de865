package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/collector"
)

const (
	// defaultCollectionInterval is used when no interval is configured.
	defaultCollectionInterval = 5 * time.Minute

	// jobTimeout bounds each scheduled run.
	jobTimeout = 2 * time.Minute

	// sweepTimeout bounds the nightly aggregation sweep, which touches
	// every station.
	sweepTimeout = 15 * time.Minute

	// retentionSlackDays keeps snapshots a little longer than the
	// aggregation window needs, so a late sweep never reads pruned data.
	retentionSlackDays = 7
)

// Scheduler runs the periodic DockPulse jobs: feed collection on a short
// interval, and station sync, aggregation and snapshot retention nightly.
type Scheduler struct {
	scheduler *gocron.Scheduler

	collector  *collector.Collector
	runner     *AggregateRunner
	snapshots  availability.Repository
	metrics    CollectionRecorder
	interval   time.Duration
	windowDays int
	log        zerolog.Logger
}

// CollectionRecorder records the outcome of collection runs. It is satisfied
// by middleware.CollectionMetrics.
type CollectionRecorder interface {
	RecordRun(status string, duration time.Duration, snapshots int)
}

// SchedulerConfig holds the dependencies for a Scheduler.
type SchedulerConfig struct {
	Collector *collector.Collector
	Runner    *AggregateRunner
	Snapshots availability.Repository

	// Metrics is optional.
	Metrics CollectionRecorder

	// CollectionInterval is how often availability is collected. Zero
	// means the default.
	CollectionInterval time.Duration

	// WindowDays is the rolling aggregation window.
	WindowDays int

	Logger zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	interval := cfg.CollectionInterval
	if interval <= 0 {
		interval = defaultCollectionInterval
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		collector:  cfg.Collector,
		runner:     cfg.Runner,
		snapshots:  cfg.Snapshots,
		metrics:    cfg.Metrics,
		interval:   interval,
		windowDays: cfg.WindowDays,
		log:        cfg.Logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the jobs and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.collectAvailability); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At("03:00").Do(s.syncStations); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At("03:30").Do(s.aggregate); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At("04:00").Do(s.pruneSnapshots); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().
		Dur("collection_interval", s.interval).
		Int("window_days", s.windowDays).
		Msg("scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) collectAvailability() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	entry, err := s.collector.CollectAvailability(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("availability collection failed")
		if s.metrics != nil {
			s.metrics.RecordRun("failed", time.Since(started), 0)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordRun(string(entry.Status), time.Since(started), entry.SnapshotsCreated)
	}
	s.log.Info().
		Str("status", string(entry.Status)).
		Int("snapshots", entry.SnapshotsCreated).
		Msg("availability collected")
}

func (s *Scheduler) syncStations() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.collector.SyncStations(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("station sync failed")
		return
	}
	s.log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deactivated", result.Deactivated).
		Msg("stations synced")
}

func (s *Scheduler) aggregate() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.runner.Run(ctx, s.windowDays); err != nil {
		s.log.Error().Err(err).Msg("aggregation sweep failed")
	}
}

func (s *Scheduler) pruneSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -(s.windowDays + retentionSlackDays))
	pruned, err := s.snapshots.PruneBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("snapshot pruning failed")
		return
	}
	s.log.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("snapshots pruned")
}
