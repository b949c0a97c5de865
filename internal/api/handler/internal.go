package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/api/models"
	"github.com/dockpulse/dockpulse/internal/api/response"
	"github.com/dockpulse/dockpulse/internal/collector"
	"github.com/dockpulse/dockpulse/internal/gbfs"
	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/worker"
)

// healthReportRuns is how many recent runs the sync health endpoint grades.
const healthReportRuns = 20

// InternalHandler handles the service-to-service endpoints that trigger feed
// collection and reliability aggregation.
type InternalHandler struct {
	collector  *collector.Collector
	aggregator *reliability.Aggregator
	runner     *worker.AggregateRunner
	windowDays int
	validate   *validator.Validate
	log        zerolog.Logger
}

// InternalHandlerConfig holds the dependencies for an InternalHandler.
type InternalHandlerConfig struct {
	Collector  *collector.Collector
	Aggregator *reliability.Aggregator
	Runner     *worker.AggregateRunner

	// WindowDays is the default aggregation window when a request does
	// not override it.
	WindowDays int

	Logger zerolog.Logger
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(cfg InternalHandlerConfig) *InternalHandler {
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = reliability.DefaultWindowDays
	}
	return &InternalHandler{
		collector:  cfg.Collector,
		aggregator: cfg.Aggregator,
		runner:     cfg.Runner,
		windowDays: windowDays,
		validate:   validator.New(),
		log:        cfg.Logger.With().Str("component", "internal_handler").Logger(),
	}
}

// SyncStations handles POST /v1/internal/sync/stations - reconcile the
// station registry against the feed.
func (h *InternalHandler) SyncStations(w http.ResponseWriter, r *http.Request) {
	result, err := h.collector.SyncStations(r.Context())
	if err != nil {
		h.writeFeedError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewSyncStationsResponse(result))
}

// CollectAvailability handles POST /v1/internal/sync/availability - fetch
// the feed and record one snapshot per rentable station.
func (h *InternalHandler) CollectAvailability(w http.ResponseWriter, r *http.Request) {
	entry, err := h.collector.CollectAvailability(r.Context())
	if err != nil {
		h.writeFeedError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewCollectResponse(entry))
}

// Aggregate handles POST /v1/internal/aggregate - recompute reliability
// scores for one station or for all active stations.
func (h *InternalHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req models.AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, r, "invalid request body", validationErrors(err))
		return
	}

	windowDays := req.WindowDays
	if windowDays == 0 {
		windowDays = h.windowDays
	}

	started := time.Now()

	if req.StationID == "all" {
		stats, err := h.runner.Run(r.Context(), windowDays)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		response.JSON(w, r, http.StatusOK, models.AggregateResponse{
			StationsAggregated: stats.StationsAggregated,
			ScoresWritten:      stats.ScoresWritten,
			WindowDays:         windowDays,
			DurationMS:         stats.Duration.Milliseconds(),
		})
		return
	}

	stationID, err := strconv.ParseInt(req.StationID, 10, 64)
	if err != nil {
		response.BadRequest(w, r, "stationId must be \"all\" or a station id", []models.FieldError{
			{Field: "stationId", Message: "must be \"all\" or an integer id", Code: "invalid"},
		})
		return
	}

	start, end, err := reliability.Window(started, windowDays)
	if err != nil {
		response.BadRequest(w, r, "windowDays must be positive", []models.FieldError{
			{Field: "windowDays", Message: "must be between 1 and 365", Code: "invalid"},
		})
		return
	}

	scores, err := h.aggregator.Aggregate(r.Context(), stationID, start, end)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.AggregateResponse{
		StationsAggregated: 1,
		ScoresWritten:      len(scores),
		WindowDays:         windowDays,
		DurationMS:         time.Since(started).Milliseconds(),
	})
}

// SyncHealth handles GET /v1/internal/sync/health - grade recent collection
// runs.
func (h *InternalHandler) SyncHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.collector.HealthReport(r.Context(), healthReportRuns)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewSyncHealthResponse(report))
}

// writeFeedError maps collection errors, treating feed outages as a
// dependency failure rather than a server bug.
func (h *InternalHandler) writeFeedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gbfs.ErrFeedCircuitOpen):
		response.ServiceUnavailable(w, r, "feed circuit open, retry later")
	case errors.Is(err, gbfs.ErrFeedUnavailable):
		response.ServiceUnavailable(w, r, "feed unavailable, retry later")
	case errors.Is(err, gbfs.ErrMalformedFeed):
		response.ServiceUnavailable(w, r, "feed returned a malformed response")
	case errors.Is(err, station.ErrStationNotFound):
		response.NotFound(w, r, "station not found")
	default:
		writeDomainError(w, r, err)
	}
}

// validationErrors converts validator errors into field errors.
func validationErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: "failed validation on " + fe.Tag(),
			Code:    fe.Tag(),
		})
	}
	return out
}
