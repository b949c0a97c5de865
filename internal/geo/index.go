package geo

import "sort"

// Site is an indexed location, identified by the owning entity's internal id.
type Site struct {
	ID    int64
	Point Point
}

// Hit is a single ranked result from an Index query.
type Hit struct {
	ID         int64
	DistanceKM float64
}

// Index ranks indexed sites by distance from an origin point. Implementations
// must order ascending by distance and break equal distances by ascending id,
// so repeated queries over unchanged data return identical sequences.
//
// The default implementation is a full scan; a grid- or tree-based index can
// replace it behind the same interface if site counts grow by orders of
// magnitude.
type Index interface {
	Nearest(origin Point, limit int) []Hit
}

// IndexBuilder constructs an Index over a fixed set of sites.
type IndexBuilder func(sites []Site) Index

// ScanIndex is a brute-force Index: every query computes the distance to every
// site. At hundreds to low thousands of sites this is the fastest option in
// practice and has no build cost.
type ScanIndex struct {
	sites []Site
}

// NewScanIndex builds a ScanIndex over the given sites. The slice is copied so
// later mutation by the caller cannot affect in-flight queries.
func NewScanIndex(sites []Site) Index {
	cpy := make([]Site, len(sites))
	copy(cpy, sites)
	return &ScanIndex{sites: cpy}
}

// Nearest returns up to limit hits ordered by distance, ties by id.
func (x *ScanIndex) Nearest(origin Point, limit int) []Hit {
	if limit <= 0 || len(x.sites) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(x.sites))
	for _, s := range x.sites {
		hits = append(hits, Hit{
			ID:         s.ID,
			DistanceKM: HaversineKM(origin, s.Point),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKM != hits[j].DistanceKM {
			return hits[i].DistanceKM < hits[j].DistanceKM
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

var _ Index = (*ScanIndex)(nil)
