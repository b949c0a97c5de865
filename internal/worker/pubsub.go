package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/collector"
	"github.com/dockpulse/dockpulse/internal/synclog"
)

// Job types accepted on the worker subscription.
const (
	JobTypeCollect      = "collect"
	JobTypeSyncStations = "sync_stations"
	JobTypeAggregate    = "aggregate"
	JobTypeHealthCheck  = "health_check"
)

// PubSubHandler processes on-demand job messages for the worker. Scheduled
// runs come from the Scheduler; Pub/Sub covers manual triggers and backfills.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	collector        *collector.Collector
	runner           *AggregateRunner
	windowDays       int
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Collector        *collector.Collector
	Runner           *AggregateRunner
	WindowDays       int
	Logger           zerolog.Logger
}

// JobMessage is the payload published to trigger a worker job.
type JobMessage struct {
	JobType string `json:"job_type"`

	// WindowDays overrides the aggregation window for aggregate jobs.
	WindowDays int `json:"window_days,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		collector:        cfg.Collector,
		runner:           cfg.Runner,
		windowDays:       cfg.WindowDays,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch job.JobType {
	case JobTypeCollect:
		err = h.handleCollect(ctx)
	case JobTypeSyncStations:
		err = h.handleSyncStations(ctx)
	case JobTypeAggregate:
		err = h.handleAggregate(ctx, job)
	case JobTypeHealthCheck:
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", job.JobType).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed")

	msg.Ack()
}

func (h *PubSubHandler) handleCollect(ctx context.Context) error {
	entry, err := h.collector.CollectAvailability(ctx)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("status", string(entry.Status)).
		Int("stations", entry.StationsUpdated).
		Int("snapshots", entry.SnapshotsCreated).
		Msg("collection run complete")
	return nil
}

func (h *PubSubHandler) handleSyncStations(ctx context.Context) error {
	result, err := h.collector.SyncStations(ctx)
	if err != nil {
		return err
	}

	h.logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deactivated", result.Deactivated).
		Int("skipped", result.Skipped).
		Msg("station sync complete")
	return nil
}

func (h *PubSubHandler) handleAggregate(ctx context.Context, job JobMessage) error {
	windowDays := job.WindowDays
	if windowDays <= 0 {
		windowDays = h.windowDays
	}

	stats, err := h.runner.Run(ctx, windowDays)
	if err != nil {
		return err
	}
	if stats.Failed > stats.StationsAggregated {
		return fmt.Errorf("too many aggregation failures: %d of %d stations",
			stats.Failed, stats.Failed+stats.StationsAggregated)
	}
	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	report, err := h.collector.HealthReport(ctx, 20)
	if err != nil {
		return err
	}
	if report.Health == synclog.HealthUnhealthy {
		return fmt.Errorf("collection unhealthy: %d of %d recent runs failed",
			report.Failed, report.TotalRuns)
	}

	h.logger.Debug().Str("health", string(report.Health)).Msg("health check passed")
	return nil
}
