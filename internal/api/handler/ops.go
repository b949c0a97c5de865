package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dockpulse/dockpulse/internal/api/models"
	"github.com/dockpulse/dockpulse/internal/api/response"
)

// readinessTimeout bounds each subsystem probe.
const readinessTimeout = 2 * time.Second

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints like health checks.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, db Pinger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		db:        db,
	}
}

// HealthCheck handles GET /v1/ops/health - process liveness.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready - checks that dependencies are
// reachable before the instance takes traffic.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	subsystems := []models.SubsystemStatus{h.checkDatabase(r.Context())}

	for _, sub := range subsystems {
		if sub.Status != models.HealthStatusOK {
			status = models.HealthStatusFail
		}
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}

	response.JSON(w, r, code, models.Readiness{
		Status:     status,
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
	})
}

func (h *OpsHandler) checkDatabase(ctx context.Context) models.SubsystemStatus {
	sub := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
	if h.db == nil {
		sub.Status = models.HealthStatusFail
		detail := "not configured"
		sub.Detail = &detail
		return sub
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		sub.Status = models.HealthStatusFail
		detail := err.Error()
		sub.Detail = &detail
	}
	return sub
}
