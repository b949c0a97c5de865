// Package handler provides HTTP handlers for the DockPulse API.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dockpulse/dockpulse/internal/api/models"
	"github.com/dockpulse/dockpulse/internal/api/response"
	"github.com/dockpulse/dockpulse/internal/availability"
	"github.com/dockpulse/dockpulse/internal/database"
	"github.com/dockpulse/dockpulse/internal/geo"
	"github.com/dockpulse/dockpulse/internal/lookup"
	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// defaultNearbyLimit is used when the nearby query omits the limit parameter.
const defaultNearbyLimit = 5

// availabilityHistoryWindow bounds how far back the availability endpoint
// looks for history.
const availabilityHistoryWindow = 24 * time.Hour

// History limits for the availability endpoint.
const (
	defaultHistoryLimit = 12
	maxHistoryLimit     = 50
)

// StationHandler handles the public station endpoints.
type StationHandler struct {
	stations  station.Repository
	snapshots availability.Repository
	lookup    *lookup.Service
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stations station.Repository, snapshots availability.Repository, lookupSvc *lookup.Service) *StationHandler {
	return &StationHandler{
		stations:  stations,
		snapshots: snapshots,
		lookup:    lookupSvc,
	}
}

// List handles GET /v1/stations - list registered stations. Deactivated
// stations are excluded unless activeOnly=false.
func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("activeOnly") != "false"

	stations, err := h.stations.List(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]models.Station, 0, len(stations))
	for _, s := range stations {
		out = append(out, models.NewStation(s))
	}

	response.JSON(w, r, http.StatusOK, models.StationList{
		Stations: out,
		Count:    len(out),
	})
}

// Nearby handles GET /v1/stations/nearby - rank stations around a point.
func (h *StationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		response.BadRequest(w, r, "lat must be a number", []models.FieldError{
			{Field: "lat", Message: "required decimal degrees", Code: "invalid"},
		})
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		response.BadRequest(w, r, "lon must be a number", []models.FieldError{
			{Field: "lon", Message: "required decimal degrees", Code: "invalid"},
		})
		return
	}

	limit := defaultNearbyLimit
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, r, "limit must be an integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "invalid"},
			})
			return
		}
	}

	var dayType *timebucket.DayType
	if raw := q.Get("dayType"); raw != "" {
		dt := timebucket.DayType(raw)
		dayType = &dt
	}

	results, err := h.lookup.Nearby(r.Context(), lat, lon, limit, dayType)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]models.NearbyStation, 0, len(results))
	for _, res := range results {
		out = append(out, models.NewNearbyStation(res))
	}

	response.JSON(w, r, http.StatusOK, models.NearbyResponse{
		Stations: out,
		Count:    len(out),
	})
}

// Get handles GET /v1/stations/{stationID} - station detail with the latest
// reading and a reliability summary.
func (h *StationHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, ok := h.resolveStation(w, r)
	if !ok {
		return
	}

	detail := models.StationDetail{Station: models.NewStation(st)}

	latest, err := h.snapshots.Latest(r.Context(), st.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if latest != nil {
		current := models.NewAvailabilitySnapshot(latest)
		detail.Current = &current
	}

	scores, err := h.lookup.ForStation(r.Context(), st.ID, nil)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	detail.Reliability = models.NewReliabilitySummary(scores)

	response.JSON(w, r, http.StatusOK, detail)
}

// Reliability handles GET /v1/stations/{stationID}/reliability.
func (h *StationHandler) Reliability(w http.ResponseWriter, r *http.Request) {
	st, ok := h.resolveStation(w, r)
	if !ok {
		return
	}

	var dayType *timebucket.DayType
	if raw := r.URL.Query().Get("dayType"); raw != "" {
		dt := timebucket.DayType(raw)
		if !dt.Valid() {
			response.BadRequest(w, r, "dayType must be weekday or weekend", []models.FieldError{
				{Field: "dayType", Message: "must be weekday or weekend", Code: "invalid"},
			})
			return
		}
		dayType = &dt
	}

	hour := -1
	if raw := r.URL.Query().Get("hour"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 23 {
			response.BadRequest(w, r, "hour must be between 0 and 23", []models.FieldError{
				{Field: "hour", Message: "must be an integer between 0 and 23", Code: "invalid"},
			})
			return
		}
		hour = parsed
	}

	scores, err := h.lookup.ForStation(r.Context(), st.ID, dayType)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]models.ReliabilityScore, 0, len(scores))
	for _, s := range scores {
		if hour >= 0 && s.Hour != hour {
			continue
		}
		out = append(out, models.NewReliabilityScore(s))
	}

	response.JSON(w, r, http.StatusOK, models.ReliabilityResponse{
		StationID: st.ID,
		Scores:    out,
		HasData:   len(out) > 0,
	})
}

// Availability handles GET /v1/stations/{stationID}/availability - the
// latest reading plus recent history, newest last.
func (h *StationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	st, ok := h.resolveStation(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, r, "limit must be a positive integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "invalid"},
			})
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	latest, err := h.snapshots.Latest(r.Context(), st.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := models.AvailabilityResponse{StationID: st.ID}
	if latest != nil {
		current := models.NewAvailabilitySnapshot(latest)
		resp.Current = &current

		end := time.Now().UTC()
		history, err := h.snapshots.ListRange(r.Context(), st.ID, end.Add(-availabilityHistoryWindow), end)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if len(history) > limit {
			history = history[len(history)-limit:]
		}
		resp.History = make([]models.AvailabilitySnapshot, 0, len(history))
		for _, s := range history {
			resp.History = append(resp.History, models.NewAvailabilitySnapshot(s))
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// resolveStation parses the stationID path parameter and loads the station,
// writing the error response itself when that fails.
func (h *StationHandler) resolveStation(w http.ResponseWriter, r *http.Request) (*station.Station, bool) {
	raw := chi.URLParam(r, "stationID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.BadRequest(w, r, "stationID must be an integer", []models.FieldError{
			{Field: "stationID", Message: "must be an integer", Code: "invalid"},
		})
		return nil, false
	}

	st, err := h.stations.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}

	return st, true
}

// writeDomainError maps domain errors to Problem responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, station.ErrStationNotFound):
		response.NotFound(w, r, "station not found")
	case errors.Is(err, station.ErrInvalidLimit):
		response.BadRequest(w, r, "limit must be positive", []models.FieldError{
			{Field: "limit", Message: "must be a positive integer", Code: "invalid"},
		})
	case errors.Is(err, geo.ErrInvalidCoordinate):
		response.BadRequest(w, r, "coordinates out of range", []models.FieldError{
			{Field: "lat", Message: "latitude must be within [-90, 90]", Code: "invalid"},
			{Field: "lon", Message: "longitude must be within [-180, 180]", Code: "invalid"},
		})
	case errors.Is(err, lookup.ErrInvalidDayType):
		response.BadRequest(w, r, "dayType must be weekday or weekend", []models.FieldError{
			{Field: "dayType", Message: "must be weekday or weekend", Code: "invalid"},
		})
	case errors.Is(err, reliability.ErrInvalidWindow):
		response.BadRequest(w, r, "aggregation window must be positive", []models.FieldError{
			{Field: "windowDays", Message: "must be between 1 and 365", Code: "invalid"},
		})
	case errors.Is(err, database.ErrTimeout):
		response.ServiceUnavailable(w, r, "storage timed out, retry later")
	case errors.Is(err, database.ErrUnavailable):
		response.ServiceUnavailable(w, r, "storage unavailable, retry later")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
