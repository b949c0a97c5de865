package station

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dockpulse/dockpulse/internal/geo"
)

// Finder limits. Results are clamped to MaxLimit regardless of what the
// caller asks for.
const (
	DefaultLimit = 5
	MaxLimit     = 20
)

// FinderConfig holds dependencies and tuning for the Finder.
type FinderConfig struct {
	Repository Repository

	// IndexBuilder constructs the spatial index used for a query. Defaults
	// to geo.NewScanIndex when nil.
	IndexBuilder geo.IndexBuilder

	// MaxLimit caps the number of results per query. Defaults to MaxLimit.
	MaxLimit int

	Logger zerolog.Logger
}

// Finder answers nearest-station queries over the station registry.
type Finder struct {
	repo       Repository
	buildIndex geo.IndexBuilder
	maxLimit   int
	logger     zerolog.Logger
}

// NewFinder creates a Finder.
func NewFinder(cfg FinderConfig) *Finder {
	builder := cfg.IndexBuilder
	if builder == nil {
		builder = geo.NewScanIndex
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	return &Finder{
		repo:       cfg.Repository,
		buildIndex: builder,
		maxLimit:   maxLimit,
		logger:     cfg.Logger.With().Str("component", "station_finder").Logger(),
	}
}

// Nearby is a station paired with its great-circle distance from the query
// origin.
type Nearby struct {
	Station    *Station
	DistanceKM float64
}

// Nearest returns up to limit stations ordered by ascending distance from the
// given origin, ties broken by ascending station id. A non-positive limit is
// rejected with ErrInvalidLimit; a limit above the configured maximum is
// clamped, not rejected. When activeOnly is set, deactivated stations are
// excluded before ranking.
func (f *Finder) Nearest(ctx context.Context, lat, lon float64, limit int, activeOnly bool) ([]Nearby, error) {
	origin, err := geo.NewPoint(lat, lon)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if limit > f.maxLimit {
		limit = f.maxLimit
	}

	// One List call per query so ranking sees a consistent snapshot of the
	// registry.
	stations, err := f.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	if len(stations) == 0 {
		return nil, nil
	}

	byID := make(map[int64]*Station, len(stations))
	sites := make([]geo.Site, 0, len(stations))
	for _, s := range stations {
		byID[s.ID] = s
		sites = append(sites, geo.Site{ID: s.ID, Point: s.Coordinate})
	}

	hits := f.buildIndex(sites).Nearest(origin, limit)

	results := make([]Nearby, 0, len(hits))
	for _, h := range hits {
		results = append(results, Nearby{
			Station:    byID[h.ID],
			DistanceKM: h.DistanceKM,
		})
	}

	f.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Int("limit", limit).
		Int("results", len(results)).
		Msg("nearest station query")

	return results, nil
}
