// Package synclog records the outcome of each feed collection run and
// derives collector health from the recent history.
package synclog

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one collection run.
type Status string

const (
	// StatusSuccess: every observation in the run was ingested.
	StatusSuccess Status = "success"

	// StatusPartial: the run completed but some observations were
	// rejected.
	StatusPartial Status = "partial"

	// StatusFailed: the run did not produce any snapshots.
	StatusFailed Status = "failed"
)

// Entry is one collection run record.
type Entry struct {
	ID               string
	Status           Status
	StationsUpdated  int
	SnapshotsCreated int
	ResponseTimeMS   int64
	ErrorMessage     *string
	CreatedAt        time.Time
}

// NewEntry creates an Entry with a fresh id.
func NewEntry(status Status) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

// Health grades the collector from its recent run history.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
	HealthUnknown   Health = "unknown"
)

// Report summarizes recent collection runs.
type Report struct {
	Health      Health
	TotalRuns   int
	Successful  int
	Partial     int
	Failed      int
	SuccessRate float64
	LastRun     *Entry
}

// BuildReport derives a health report from entries ordered newest first.
// Partial runs count toward the success rate since they did move data.
func BuildReport(entries []*Entry) *Report {
	report := &Report{Health: HealthUnknown}
	if len(entries) == 0 {
		return report
	}

	report.TotalRuns = len(entries)
	report.LastRun = entries[0]
	for _, e := range entries {
		switch e.Status {
		case StatusSuccess:
			report.Successful++
		case StatusPartial:
			report.Partial++
		case StatusFailed:
			report.Failed++
		}
	}

	report.SuccessRate = float64(report.Successful+report.Partial) / float64(report.TotalRuns)
	switch {
	case report.SuccessRate >= 0.8:
		report.Health = HealthHealthy
	case report.SuccessRate >= 0.5:
		report.Health = HealthDegraded
	default:
		report.Health = HealthUnhealthy
	}

	return report
}
