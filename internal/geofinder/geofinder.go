// Package geofinder implements a spatial index over administrative
// polygons: given a point, it returns the stack of enclosing admins
// ordered by level.
package geofinder

import (
	"sort"

	"github.com/golang/geo/s2"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

// coverer levels bound how coarse (MinLevel) or fine (MaxLevel) an
// admin's candidate-bucket cells may be; MaxCells bounds how many
// cells approximate one admin's bounding box. Chosen so a country-size
// admin buckets into a handful of coarse cells and a city-size admin
// buckets into a handful of fine ones, keeping per-point lookup close
// to the logarithmic cost spec.md §4.B asks for.
var coverer = &s2.RegionCoverer{MinLevel: 2, MaxLevel: 16, MaxCells: 12}

type entry struct {
	admin *place.Admin
	order int
}

// AdminGeoFinder is a bulk-loaded, read-only-after-Build spatial index
// of administrative polygons.
type AdminGeoFinder struct {
	all     []*entry
	buckets map[s2.CellID][]*entry
	levels  []int
	built   bool
}

// NewBuilder creates an empty, mutable geofinder.
func NewBuilder() *AdminGeoFinder {
	return &AdminGeoFinder{buckets: make(map[s2.CellID][]*entry)}
}

// Add registers an admin. Admins without a boundary are stored (so
// ById/ParentID lookups still work) but are never returned by point
// queries, per spec.md §4.B failure contract.
func (g *AdminGeoFinder) Add(a *place.Admin) {
	if g.built {
		panic("geofinder: Add called after Build")
	}
	g.all = append(g.all, &entry{admin: a, order: len(g.all)})
}

// Build indexes every admin with a boundary into the S2 cell cover
// buckets. It must be called once, after all Add calls and before any
// Query. The finder is immutable thereafter.
func (g *AdminGeoFinder) Build() {
	if g.built {
		return
	}
	levelSet := map[int]bool{}
	for _, e := range g.all {
		if e.admin.Boundary == nil || len(*e.admin.Boundary) == 0 {
			continue
		}
		rect := e.admin.Boundary.Bounds()
		region := s2.RectFromLatLng(s2.LatLngFromDegrees(rect.MinLat, rect.MinLon)).
			AddPoint(s2.LatLngFromDegrees(rect.MaxLat, rect.MaxLon))
		covering := coverer.Covering(region)
		for _, cellID := range covering {
			g.buckets[cellID] = append(g.buckets[cellID], e)
			levelSet[cellID.Level()] = true
		}
	}
	for lvl := range levelSet {
		g.levels = append(g.levels, lvl)
	}
	sort.Ints(g.levels)
	g.built = true
}

// Query returns the admins whose polygon contains coord, ordered by
// level ascending (largest admin first); ties at the same level keep
// insertion order, per spec.md §4.B.
func (g *AdminGeoFinder) Query(c place.Coord) []*place.Admin {
	if !g.built {
		panic("geofinder: Query called before Build")
	}
	point := s2.CellIDFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))

	seen := map[*place.Admin]bool{}
	var candidates []*entry
	for _, lvl := range g.levels {
		ancestor := point.Parent(lvl)
		for _, e := range g.buckets[ancestor] {
			if seen[e.admin] {
				continue
			}
			seen[e.admin] = true
			candidates = append(candidates, e)
		}
	}

	var hits []*entry
	for _, e := range candidates {
		if PointInMultiPolygon(c, *e.admin.Boundary) {
			hits = append(hits, e)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].admin.Level != hits[j].admin.Level {
			return hits[i].admin.Level < hits[j].admin.Level
		}
		return hits[i].order < hits[j].order
	})

	out := make([]*place.Admin, len(hits))
	for i, e := range hits {
		out[i] = e.admin
	}
	return out
}

// All returns every admin added to the finder, including those without
// a boundary.
func (g *AdminGeoFinder) All() []*place.Admin {
	out := make([]*place.Admin, len(g.all))
	for i, e := range g.all {
		out[i] = e.admin
	}
	return out
}
