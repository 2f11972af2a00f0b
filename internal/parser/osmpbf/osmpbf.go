// Package osmpbf extracts admin-fallback, street, and POI records from
// a decoded OSM object stream (spec.md §4.D). It does not itself
// decode the `.osm.pbf` wire format — no repo in the retrieval pack
// touches OSM PBF, so this package consumes objects through the Source
// port below, the same ports-and-adapters boundary internal/search
// draws around the document store: whatever decodes the PBF file feeds
// Node/Way/Relation values in here.
package osmpbf

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tesseract-hub/mimir-geocoder/internal/geofinder"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

// Member references another OSM object from within a relation.
type Member struct {
	Kind string // "node", "way", or "relation"
	Ref  int64
	Role string
}

// Node is a single OSM point.
type Node struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags map[string]string
}

// Way is an ordered list of node references.
type Way struct {
	ID    int64
	Refs  []int64
	Tags  map[string]string
}

// Relation groups members with roles.
type Relation struct {
	ID      int64
	Members []Member
	Tags    map[string]string
}

// Source is a lazily decoded OSM object stream, grouped by kind the
// way osmpbfreader's OsmObj enum would be, but as three separate
// range-over-func sequences rather than one polymorphic iterator,
// since admin/street/POI extraction each only need a subset.
type Source interface {
	Nodes() func(yield func(Node) bool)
	Ways() func(yield func(Way) bool)
	Relations() func(yield func(Relation) bool)
}

// AdminMatcher selects relations that represent an administrative
// boundary at one of a configured set of admin_level values, mirroring
// original_source/src/osm_reader/admin.rs's AdminMatcher.
type AdminMatcher struct {
	levels map[uint32]bool
}

// NewAdminMatcher builds a matcher for the given admin_level set.
func NewAdminMatcher(levels []uint32) AdminMatcher {
	m := AdminMatcher{levels: make(map[uint32]bool, len(levels))}
	for _, l := range levels {
		m.levels[l] = true
	}
	return m
}

// IsAdmin reports whether a relation is boundary=administrative with
// an admin_level in the matcher's configured set.
func (m AdminMatcher) IsAdmin(tags map[string]string) bool {
	if tags["boundary"] != "administrative" {
		return false
	}
	lvl, err := strconv.ParseUint(tags["admin_level"], 10, 32)
	if err != nil {
		return false
	}
	return m.levels[uint32(lvl)]
}

// readZipCodes reads addr:postcode (falling back to postal_code),
// splits on ';', drops empties, and sorts, mirroring read_zip_codes.
func readZipCodes(tags map[string]string) []string {
	raw := tags["addr:postcode"]
	if raw == "" {
		raw = tags["postal_code"]
	}
	var out []string
	for _, z := range strings.Split(raw, ";") {
		if z != "" {
			out = append(out, z)
		}
	}
	sort.Strings(out)
	return out
}

// readInsee reads the ref:INSEE tag, mirroring read_insee.
func readInsee(tags map[string]string) string {
	return tags["ref:INSEE"]
}

// ParseAdmins selects relations matching matcher, assembles their
// outer/inner way members into a MultiPolygon, and yields one
// place.Admin per relation with an assembled boundary. A relation
// whose ways can't be closed into at least one ring is skipped with an
// error rather than emitted with a nil boundary, per spec.md §4.D's
// "fails fast on structural errors" contract for malformed geometry.
func ParseAdmins(src Source, matcher AdminMatcher) func(yield func(*place.Admin, error) bool) {
	return func(yield func(*place.Admin, error) bool) {
		nodeCoord := make(map[int64]place.Coord)
		for n := range src.Nodes() {
			nodeCoord[n.ID] = place.Coord{Lon: n.Lon, Lat: n.Lat}
		}
		wayCoords := make(map[int64][]place.Coord)
		for w := range src.Ways() {
			coords := make([]place.Coord, 0, len(w.Refs))
			for _, ref := range w.Refs {
				if c, ok := nodeCoord[ref]; ok {
					coords = append(coords, c)
				}
			}
			wayCoords[w.ID] = coords
		}

		for rel := range src.Relations() {
			if !matcher.IsAdmin(rel.Tags) {
				continue
			}
			mp, err := assembleMultiPolygon(rel, wayCoords)
			if err != nil {
				if !yield(nil, fmt.Errorf("osmpbf: admin relation %d: %w", rel.ID, err)) {
					return
				}
				continue
			}
			lvl, _ := strconv.ParseUint(rel.Tags["admin_level"], 10, 32)
			a := &place.Admin{
				Insee:    readInsee(rel.Tags),
				Level:    uint32(lvl),
				Boundary: &mp,
			}
			a.Common.IDValue = fmt.Sprintf("admin:osm:relation:%d", rel.ID)
			a.Name = rel.Tags["name"]
			a.SetZipCodes(readZipCodes(rel.Tags))
			bbox := mp.Bounds()
			a.Bbox = &bbox
			if !yield(a, nil) {
				return
			}
		}
	}
}

// assembleMultiPolygon joins a relation's outer/inner way members into
// closed rings and groups each inner ring with the outer ring that
// contains it, producing the boundary geometry osmpbfreader-based
// tooling derives from the same member list.
func assembleMultiPolygon(rel Relation, wayCoords map[int64][]place.Coord) (place.MultiPolygon, error) {
	var outerLines, innerLines [][]place.Coord
	for _, m := range rel.Members {
		if m.Kind != "way" {
			continue
		}
		coords, ok := wayCoords[m.Ref]
		if !ok || len(coords) < 2 {
			continue
		}
		if m.Role == "inner" {
			innerLines = append(innerLines, coords)
		} else {
			outerLines = append(outerLines, coords)
		}
	}
	outerRings := joinRings(outerLines)
	innerRings := joinRings(innerLines)
	if len(outerRings) == 0 {
		return nil, fmt.Errorf("no closed outer ring assembled from %d way members", len(rel.Members))
	}

	polys := make([]place.Polygon, len(outerRings))
	for i, r := range outerRings {
		polys[i] = place.Polygon{Outer: r}
	}
	for _, hole := range innerRings {
		idx := enclosingPolygon(polys, hole)
		polys[idx].Holes = append(polys[idx].Holes, hole)
	}
	return place.MultiPolygon(polys), nil
}

// enclosingPolygon returns the index of the outer polygon whose
// bounding box contains hole's first point, defaulting to 0 when none
// matches (a malformed multipolygon relation should still produce
// usable geometry rather than drop the hole).
func enclosingPolygon(polys []place.Polygon, hole place.Ring) int {
	if len(hole) == 0 {
		return 0
	}
	p := hole[0]
	for i, poly := range polys {
		if ringBounds(poly.Outer).Contains(p) {
			return i
		}
	}
	return 0
}

func ringBounds(r place.Ring) place.Rect {
	if len(r) == 0 {
		return place.Rect{}
	}
	out := place.Rect{MinLon: r[0].Lon, MaxLon: r[0].Lon, MinLat: r[0].Lat, MaxLat: r[0].Lat}
	for _, c := range r[1:] {
		if c.Lon < out.MinLon {
			out.MinLon = c.Lon
		}
		if c.Lon > out.MaxLon {
			out.MaxLon = c.Lon
		}
		if c.Lat < out.MinLat {
			out.MinLat = c.Lat
		}
		if c.Lat > out.MaxLat {
			out.MaxLat = c.Lat
		}
	}
	return out
}

// joinRings chains open polylines that share endpoints into closed
// rings, the way a multipolygon relation's unordered way members must
// be stitched back into ring geometry.
func joinRings(lines [][]place.Coord) []place.Ring {
	remaining := make([][]place.Coord, len(lines))
	copy(remaining, lines)

	var rings []place.Ring
	for len(remaining) > 0 {
		cur := remaining[0]
		remaining = remaining[1:]
		for !ringClosed(cur) {
			next, idx, ok := findJoin(cur, remaining)
			if !ok {
				break
			}
			cur = next
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}
		if ringClosed(cur) && len(cur) >= 4 {
			rings = append(rings, place.Ring(cur))
		}
	}
	return rings
}

func ringClosed(line []place.Coord) bool {
	if len(line) < 2 {
		return false
	}
	return coordEqual(line[0], line[len(line)-1])
}

func coordEqual(a, b place.Coord) bool {
	return a.Lon == b.Lon && a.Lat == b.Lat
}

// findJoin looks for a candidate line in rest sharing an endpoint with
// cur, returning the merged line and the consumed candidate's index.
func findJoin(cur []place.Coord, rest [][]place.Coord) ([]place.Coord, int, bool) {
	curEnd := cur[len(cur)-1]
	for i, cand := range rest {
		switch {
		case coordEqual(curEnd, cand[0]):
			return append(append([]place.Coord{}, cur...), cand[1:]...), i, true
		case coordEqual(curEnd, cand[len(cand)-1]):
			return append(append([]place.Coord{}, cur...), reversed(cand)[1:]...), i, true
		}
	}
	return nil, 0, false
}

func reversed(line []place.Coord) []place.Coord {
	out := make([]place.Coord, len(line))
	for i, c := range line {
		out[len(line)-1-i] = c
	}
	return out
}

// excludedHighway reports whether a highway tag value is in the
// configured exclusion list (e.g. "footway", "steps" are typically
// excluded from street extraction).
func excludedHighway(value string, exclude []string) bool {
	for _, e := range exclude {
		if e == value {
			return true
		}
	}
	return false
}

// smallestEnclosingCity returns the first city-type admin the
// geofinder stack reports for coord, or nil.
func smallestEnclosingCity(geo *geofinder.AdminGeoFinder, coord place.Coord) *place.Admin {
	for _, a := range geo.Query(coord) {
		if a.IsCity() {
			return a
		}
	}
	return nil
}

// streetGroup accumulates the ways sharing one (name, enclosing city)
// key, per spec.md §4.D's "groups by name inside the smallest
// enclosing city admin, emits one Street per (name, city) pair".
type streetGroup struct {
	name     string
	city     *place.Admin
	repCoord place.Coord
}

// ParseStreets groups highway ways by (name, smallest enclosing city)
// and yields one Street per group. The group's representative coord is
// the first resolvable node of its first way.
func ParseStreets(src Source, geo *geofinder.AdminGeoFinder, exclude []string) func(yield func(*place.Street, error) bool) {
	return func(yield func(*place.Street, error) bool) {
		nodeCoord := make(map[int64]place.Coord)
		for n := range src.Nodes() {
			nodeCoord[n.ID] = place.Coord{Lon: n.Lon, Lat: n.Lat}
		}

		groups := make(map[string]*streetGroup)
		var order []string
		for w := range src.Ways() {
			highway, ok := w.Tags["highway"]
			name := w.Tags["name"]
			if !ok || name == "" || excludedHighway(highway, exclude) {
				continue
			}
			var coord place.Coord
			found := false
			for _, ref := range w.Refs {
				if c, ok := nodeCoord[ref]; ok {
					coord = c
					found = true
					break
				}
			}
			if !found {
				if !yield(nil, fmt.Errorf("osmpbf: street way %d %q: no resolvable node", w.ID, name)) {
					return
				}
				continue
			}

			city := smallestEnclosingCity(geo, coord)
			cityKey := "none"
			if city != nil {
				cityKey = city.ID()
			}
			key := name + "|" + cityKey
			if _, ok := groups[key]; ok {
				continue
			}
			groups[key] = &streetGroup{name: name, city: city, repCoord: coord}
			order = append(order, key)
		}

		for _, key := range order {
			g := groups[key]
			s := &place.Street{Name: g.name}
			s.Common.CoordValue = g.repCoord
			s.Common.IDValue = "street:osm:" + key
			if g.city != nil {
				s.AdministrativeRegions = []*place.Admin{g.city}
				s.SetWeight(g.city.Weight(), g.city.Normalized())
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// TagRule matches an OSM tag by key, optionally restricted to a single
// value (empty Value matches any value for Key), classifying the
// matching object as a POI of the given type.
type TagRule struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`

	PoiTypeID   string `toml:"poi_type_id"`
	PoiTypeName string `toml:"poi_type_name"`
}

func (r TagRule) matches(tags map[string]string) bool {
	v, ok := tags[r.Key]
	if !ok {
		return false
	}
	return r.Value == "" || r.Value == v
}

// poiType finds the first whitelist rule matching tags, provided no
// blacklist rule also matches (whitelist/blacklist rule walk, per
// spec.md §4.D's "configured tag rules (whitelist/blacklist)").
func poiType(tags map[string]string, whitelist, blacklist []TagRule) (place.PoiType, bool) {
	for _, b := range blacklist {
		if b.matches(tags) {
			return place.PoiType{}, false
		}
	}
	for _, w := range whitelist {
		if w.matches(tags) {
			return place.PoiType{ID: w.PoiTypeID, Name: w.PoiTypeName}, true
		}
	}
	return place.PoiType{}, false
}

// ParsePois walks nodes, ways, and relations, yielding one place.Poi
// per object matched by a whitelist rule (and not excluded by a
// blacklist rule). Ways and relations use the centroid of their
// resolvable member coordinates as the representative point, falling
// back to the first resolvable coordinate when that average is NaN; a
// way or relation with no resolvable member yields an error instead.
func ParsePois(src Source, whitelist, blacklist []TagRule) func(yield func(*place.Poi, error) bool) {
	return func(yield func(*place.Poi, error) bool) {
		nodeCoord := make(map[int64]place.Coord)
		nodeTags := make(map[int64]map[string]string)
		for n := range src.Nodes() {
			nodeCoord[n.ID] = place.Coord{Lon: n.Lon, Lat: n.Lat}
			nodeTags[n.ID] = n.Tags
			if pt, ok := poiType(n.Tags, whitelist, blacklist); ok {
				p := &place.Poi{PoiType: pt, Properties: n.Tags}
				p.Common.IDValue = fmt.Sprintf("poi:osm:node:%d", n.ID)
				p.Name = n.Tags["name"]
				p.Common.CoordValue = place.Coord{Lon: n.Lon, Lat: n.Lat}
				if !yield(p, nil) {
					return
				}
			}
		}

		wayCoords := make(map[int64][]place.Coord)
		for w := range src.Ways() {
			coords := make([]place.Coord, 0, len(w.Refs))
			for _, ref := range w.Refs {
				if c, ok := nodeCoord[ref]; ok {
					coords = append(coords, c)
				}
			}
			wayCoords[w.ID] = coords
			pt, ok := poiType(w.Tags, whitelist, blacklist)
			if !ok {
				continue
			}
			coord, ok := centroid(coords)
			if !ok {
				if !yield(nil, fmt.Errorf("osmpbf: POI way %d: no resolvable node", w.ID)) {
					return
				}
				continue
			}
			p := &place.Poi{PoiType: pt, Properties: w.Tags}
			p.Common.IDValue = fmt.Sprintf("poi:osm:way:%d", w.ID)
			p.Name = w.Tags["name"]
			p.Common.CoordValue = coord
			if !yield(p, nil) {
				return
			}
		}

		for rel := range src.Relations() {
			pt, ok := poiType(rel.Tags, whitelist, blacklist)
			if !ok {
				continue
			}
			var pts []place.Coord
			for _, m := range rel.Members {
				switch m.Kind {
				case "node":
					if c, ok := nodeCoord[m.Ref]; ok {
						pts = append(pts, c)
					}
				case "way":
					pts = append(pts, wayCoords[m.Ref]...)
				}
			}
			coord, ok := centroid(pts)
			if !ok {
				if !yield(nil, fmt.Errorf("osmpbf: POI relation %d: no resolvable member", rel.ID)) {
					return
				}
				continue
			}
			p := &place.Poi{PoiType: pt, Properties: rel.Tags}
			p.Common.IDValue = fmt.Sprintf("poi:osm:relation:%d", rel.ID)
			p.Name = rel.Tags["name"]
			p.Common.CoordValue = coord
			if !yield(p, nil) {
				return
			}
		}
	}
}

// centroid averages a set of coordinates, reporting false only for an
// empty set. A NaN average falls back to the first coordinate.
func centroid(coords []place.Coord) (place.Coord, bool) {
	if len(coords) == 0 {
		return place.Coord{}, false
	}
	var sumLon, sumLat float64
	for _, c := range coords {
		sumLon += c.Lon
		sumLat += c.Lat
	}
	n := float64(len(coords))
	c := place.Coord{Lon: sumLon / n, Lat: sumLat / n}
	if math.IsNaN(c.Lon) || math.IsNaN(c.Lat) {
		return coords[0], true
	}
	return c, true
}
