package search

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/s2"
)

// Fake is an in-memory Backend used by package tests across the repo
// (internal/geofinder, internal/lifecycle, internal/geocode) in place
// of a live Typesense instance, per spec.md §8's testing approach.
type Fake struct {
	mu      sync.Mutex
	indices map[string]map[string]Doc // index name -> id -> doc
	aliases map[string]string         // alias -> index name
	health  Health
	version string
}

// NewFake builds an empty Fake reporting healthy status.
func NewFake() *Fake {
	return &Fake{
		indices: make(map[string]map[string]Doc),
		aliases: make(map[string]string),
		health:  HealthOK,
		version: "fake-1.0",
	}
}

func (f *Fake) CreateIndex(_ context.Context, name string, _ Schema) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indices[name] = make(map[string]Doc)
	return nil
}

func (f *Fake) DeleteIndex(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indices, name)
	return nil
}

func (f *Fake) AddAlias(_ context.Context, alias, index string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliases[alias] = index
	return nil
}

func (f *Fake) RemoveAlias(_ context.Context, alias string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.aliases, alias)
	return nil
}

func (f *Fake) ResolveAlias(_ context.Context, alias string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.aliases[alias]
	return idx, ok, nil
}

func (f *Fake) InsertBatch(_ context.Context, index string, docs []Doc) (BulkOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coll, ok := f.indices[index]
	if !ok {
		coll = make(map[string]Doc)
		f.indices[index] = coll
	}
	var out BulkOutcome
	for _, d := range docs {
		id, _ := d["id"].(string)
		if id == "" {
			out.Skipped++
			out.Errors = append(out.Errors, ItemError{Short: "missing_id", Long: "document has no id"})
			continue
		}
		_, existed := coll[id]
		coll[id] = d
		if existed {
			out.Updated++
		} else {
			out.Created++
		}
	}
	return out, nil
}

// Search honors the same filter_by geo-radius clause and sort_by
// distance clause internal/dsl puts in Query.Raw for the real Typesense
// adapter (see typesense.go), so package tests built on Fake exercise
// the geo semantics spec.md §4.I/§4.J/§8 require rather than only the
// text-match path.
func (f *Fake) Search(_ context.Context, indices []string, q Query) (SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qStr, _ := q.Raw["q"].(string)
	qStr = strings.ToLower(qStr)

	center, hasCenter := geoCenterFrom(q)
	radiusKm, hasRadius := geoRadiusFrom(q)

	type scored struct {
		hit     Hit
		distKm  float64
		hasDist bool
	}
	var scoredHits []scored
	for _, idx := range indices {
		for _, d := range f.indices[resolveIndex(f, idx)] {
			label, _ := d["label"].(string)
			name, _ := d["name"].(string)
			textScore := 0.0
			switch {
			case qStr == "" || qStr == "*":
				textScore = 1
			case strings.Contains(strings.ToLower(label), qStr):
				textScore = 2
			case strings.Contains(strings.ToLower(name), qStr):
				textScore = 1.5
			default:
				continue
			}

			var distKm float64
			hasDist := false
			if hasCenter {
				if c, ok := docCoord(d); ok {
					distKm = arcDistanceKm(center, c)
					hasDist = true
				}
			}
			if hasRadius && (!hasDist || distKm > radiusKm) {
				continue
			}
			scoredHits = append(scoredHits, scored{hit: Hit{Doc: d, Score: textScore}, distKm: distKm, hasDist: hasDist})
		}
	}

	sort.SliceStable(scoredHits, func(i, j int) bool {
		a, b := scoredHits[i], scoredHits[j]
		if a.hit.Score != b.hit.Score {
			return a.hit.Score > b.hit.Score
		}
		if a.hasDist && b.hasDist {
			return a.distKm < b.distKm
		}
		return false
	})

	hits := make([]Hit, len(scoredHits))
	for i, s := range scoredHits {
		hits[i] = s.hit
	}
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return SearchResult{Hits: hits, Total: len(hits)}, nil
}

func resolveIndex(f *Fake, name string) string {
	if idx, ok := f.aliases[name]; ok {
		return idx
	}
	return name
}

type latLon struct{ lat, lon float64 }

const earthRadiusKm = 6371.0

var (
	geoFilterRe = regexp.MustCompile(`coord:\(\s*([-0-9.]+)\s*,\s*([-0-9.]+)\s*,\s*([0-9.]+)\s*km\s*\)`)
	geoSortRe   = regexp.MustCompile(`coord\(\s*([-0-9.]+)\s*,\s*([-0-9.]+)\s*\):asc`)
)

// geoCenterFrom extracts the distance-reference point a forward/reverse
// query carries in sort_by (internal/dsl always sorts by distance from
// the point callers actually care about) or, failing that, filter_by's
// geo-radius clause.
func geoCenterFrom(q Query) (latLon, bool) {
	if sb, ok := q.Raw["sort_by"].(string); ok {
		if m := geoSortRe.FindStringSubmatch(sb); m != nil {
			lat, _ := strconv.ParseFloat(m[1], 64)
			lon, _ := strconv.ParseFloat(m[2], 64)
			return latLon{lat: lat, lon: lon}, true
		}
	}
	if fb, ok := q.Raw["filter_by"].(string); ok {
		if m := geoFilterRe.FindStringSubmatch(fb); m != nil {
			lat, _ := strconv.ParseFloat(m[1], 64)
			lon, _ := strconv.ParseFloat(m[2], 64)
			return latLon{lat: lat, lon: lon}, true
		}
	}
	return latLon{}, false
}

// geoRadiusFrom extracts the km radius of a reverse query's filter_by
// geo-distance clause, BuildReverse's "coord:(lat, lon, N km)" shape.
func geoRadiusFrom(q Query) (float64, bool) {
	fb, ok := q.Raw["filter_by"].(string)
	if !ok {
		return 0, false
	}
	m := geoFilterRe.FindStringSubmatch(fb)
	if m == nil {
		return 0, false
	}
	radiusKm, _ := strconv.ParseFloat(m[3], 64)
	return radiusKm, true
}

// docCoord reads the {"lon":..,"lat":..} coord object InsertBatch
// stores, the same shape the real Typesense adapter round-trips.
func docCoord(d Doc) (latLon, bool) {
	raw, ok := d["coord"]
	if !ok {
		return latLon{}, false
	}
	coordMap, ok := raw.(map[string]any)
	if !ok {
		return latLon{}, false
	}
	lon, lonOK := coordMap["lon"].(float64)
	lat, latOK := coordMap["lat"].(float64)
	if !lonOK || !latOK {
		return latLon{}, false
	}
	return latLon{lat: lat, lon: lon}, true
}

// arcDistanceKm is the great-circle distance between two points, using
// the same golang/geo/s2 library internal/geofinder buckets admins with
// rather than a hand-rolled haversine.
func arcDistanceKm(a, b latLon) float64 {
	ll1 := s2.LatLngFromDegrees(a.lat, a.lon)
	ll2 := s2.LatLngFromDegrees(b.lat, b.lon)
	return float64(ll1.Distance(ll2)) * earthRadiusKm
}

func (f *Fake) GetByID(_ context.Context, indices []string, ids []string) (map[string]Doc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Doc, len(ids))
	for _, idx := range indices {
		coll := f.indices[resolveIndex(f, idx)]
		for _, id := range ids {
			if _, done := out[id]; done {
				continue
			}
			if d, ok := coll[id]; ok {
				out[id] = d
			}
		}
	}
	return out, nil
}

func (f *Fake) List(_ context.Context, index string) func(yield func(Doc, error) bool) {
	return func(yield func(Doc, error) bool) {
		f.mu.Lock()
		coll := f.indices[resolveIndex(f, index)]
		docs := make([]Doc, 0, len(coll))
		for _, d := range coll {
			docs = append(docs, d)
		}
		f.mu.Unlock()
		for _, d := range docs {
			if !yield(d, nil) {
				return
			}
		}
	}
}

func (f *Fake) Status(_ context.Context) (BackendStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return BackendStatus{Health: f.health, Version: f.version}, nil
}

// SetHealth lets tests simulate a backend outage.
func (f *Fake) SetHealth(h Health) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.health = h
}

var _ Backend = (*Fake)(nil)
