package models

import (
	"github.com/dockpulse/dockpulse/internal/collector"
	"github.com/dockpulse/dockpulse/internal/synclog"
)

// SyncStationsResponse is the response for the station sync trigger.
type SyncStationsResponse struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Deactivated int `json:"deactivated"`
	Skipped     int `json:"skipped"`
}

// NewSyncStationsResponse maps a sync result to its API representation.
func NewSyncStationsResponse(r *collector.SyncResult) SyncStationsResponse {
	return SyncStationsResponse{
		Created:     r.Created,
		Updated:     r.Updated,
		Deactivated: r.Deactivated,
		Skipped:     r.Skipped,
	}
}

// CollectResponse is the response for the availability collection trigger.
type CollectResponse struct {
	RunID            string    `json:"runId"`
	Status           string    `json:"status"`
	StationsUpdated  int       `json:"stationsUpdated"`
	SnapshotsCreated int       `json:"snapshotsCreated"`
	ResponseTimeMS   int64     `json:"responseTimeMs"`
	CreatedAt        Timestamp `json:"createdAt"`
}

// NewCollectResponse maps a sync log entry to its API representation.
func NewCollectResponse(e *synclog.Entry) CollectResponse {
	return CollectResponse{
		RunID:            e.ID,
		Status:           string(e.Status),
		StationsUpdated:  e.StationsUpdated,
		SnapshotsCreated: e.SnapshotsCreated,
		ResponseTimeMS:   e.ResponseTimeMS,
		CreatedAt:        Timestamp(e.CreatedAt),
	}
}

// AggregateRequest triggers reliability aggregation.
type AggregateRequest struct {
	// StationID aggregates a single station; "all" aggregates every
	// active station.
	StationID string `json:"stationId" validate:"required"`

	// WindowDays overrides the rolling window. Zero means the configured
	// default.
	WindowDays int `json:"windowDays" validate:"gte=0,lte=365"`
}

// AggregateResponse is the response for the aggregation trigger.
type AggregateResponse struct {
	StationsAggregated int   `json:"stationsAggregated"`
	ScoresWritten      int   `json:"scoresWritten"`
	WindowDays         int   `json:"windowDays"`
	DurationMS         int64 `json:"durationMs"`
}

// SyncHealthResponse is the response for the sync health endpoint.
type SyncHealthResponse struct {
	Health      string           `json:"health"`
	TotalRuns   int              `json:"totalRuns"`
	Successful  int              `json:"successful"`
	Partial     int              `json:"partial"`
	Failed      int              `json:"failed"`
	SuccessRate float64          `json:"successRate"`
	LastRun     *CollectResponse `json:"lastRun,omitempty"`
}

// NewSyncHealthResponse maps a health report to its API representation.
func NewSyncHealthResponse(r *synclog.Report) SyncHealthResponse {
	resp := SyncHealthResponse{
		Health:      string(r.Health),
		TotalRuns:   r.TotalRuns,
		Successful:  r.Successful,
		Partial:     r.Partial,
		Failed:      r.Failed,
		SuccessRate: r.SuccessRate,
	}
	if r.LastRun != nil {
		last := NewCollectResponse(r.LastRun)
		resp.LastRun = &last
	}
	return resp
}
