// Package lookup joins nearest-station ranking with reliability scores into
// the single response the public API serves.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/reliability"
	"github.com/dockpulse/dockpulse/internal/station"
	"github.com/dockpulse/dockpulse/internal/timebucket"
)

// walkSpeedKMH is the assumed walking speed for the walk-time estimate.
const walkSpeedKMH = 5.0

// ErrInvalidDayType is returned for day type filters that are neither
// weekday nor weekend.
var ErrInvalidDayType = errors.New("day type must be weekday or weekend")

// Config holds dependencies for the Service.
type Config struct {
	Finder *station.Finder
	Scores reliability.Repository
	Logger zerolog.Logger
}

// Service answers combined nearby-station reliability queries.
type Service struct {
	finder *station.Finder
	scores reliability.Repository
	logger zerolog.Logger
}

// NewService creates a lookup Service.
func NewService(cfg Config) *Service {
	return &Service{
		finder: cfg.Finder,
		scores: cfg.Scores,
		logger: cfg.Logger.With().Str("component", "lookup_service").Logger(),
	}
}

// StationReliability is one ranked result: a station, its distance from the
// query origin, and whatever reliability data exists for it.
type StationReliability struct {
	Station    *station.Station
	DistanceKM float64

	// EstimatedWalkMinutes assumes a 5 km/h straight-line walk.
	EstimatedWalkMinutes float64

	// Scores is empty when the station has no aggregated data yet. HasData
	// distinguishes that case explicitly so callers never have to guess.
	Scores  []*reliability.Score
	HasData bool
}

// Nearby returns up to limit stations around the origin, ordered by the
// finder's distance ranking, each joined with its reliability scores. Passing
// a non-nil dayType restricts scores to that day type. Stations without
// aggregated data are kept in the ranking with HasData false. Any score
// storage failure fails the whole query rather than returning a silently
// partial ranking.
func (s *Service) Nearby(ctx context.Context, lat, lon float64, limit int, dayType *timebucket.DayType) ([]*StationReliability, error) {
	if dayType != nil && !dayType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDayType, *dayType)
	}

	nearest, err := s.finder.Nearest(ctx, lat, lon, limit, true)
	if err != nil {
		return nil, err
	}
	if len(nearest) == 0 {
		return nil, nil
	}

	// Fan out the per-station score reads; results land at their ranked
	// index so the distance order is never disturbed.
	results := make([]*StationReliability, len(nearest))
	errs := make([]error, len(nearest))

	var wg sync.WaitGroup
	for i, near := range nearest {
		wg.Add(1)
		go func(i int, near station.Nearby) {
			defer wg.Done()

			scores, err := s.scores.ListForStation(ctx, near.Station.ID, dayType)
			if err != nil {
				errs[i] = fmt.Errorf("scores for station %d: %w", near.Station.ID, err)
				return
			}

			results[i] = &StationReliability{
				Station:              near.Station,
				DistanceKM:           near.DistanceKM,
				EstimatedWalkMinutes: near.DistanceKM / walkSpeedKMH * 60,
				Scores:               scores,
				HasData:              len(scores) > 0,
			}
		}(i, near)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug().
		Int("results", len(results)).
		Msg("nearby reliability lookup")

	return results, nil
}

// ForStation returns the reliability scores for a single station, optionally
// filtered by day type. Station existence is not checked here; callers that
// need a hard not-found signal resolve the station first.
func (s *Service) ForStation(ctx context.Context, stationID int64, dayType *timebucket.DayType) ([]*reliability.Score, error) {
	return s.scores.ListForStation(ctx, stationID, dayType)
}
