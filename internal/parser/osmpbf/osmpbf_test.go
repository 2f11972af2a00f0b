package osmpbf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/geofinder"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

// fakeSource is an in-memory Source for tests, standing in for a real
// OSM PBF decoder.
type fakeSource struct {
	nodes     []Node
	ways      []Way
	relations []Relation
}

func (f fakeSource) Nodes() func(yield func(Node) bool) {
	return func(yield func(Node) bool) {
		for _, n := range f.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

func (f fakeSource) Ways() func(yield func(Way) bool) {
	return func(yield func(Way) bool) {
		for _, w := range f.ways {
			if !yield(w) {
				return
			}
		}
	}
}

func (f fakeSource) Relations() func(yield func(Relation) bool) {
	return func(yield func(Relation) bool) {
		for _, r := range f.relations {
			if !yield(r) {
				return
			}
		}
	}
}

// squareSource builds a single administrative relation bounded by a
// closed 4-node square, split across two outer ways sharing endpoints.
func squareSource() fakeSource {
	nodes := []Node{
		{ID: 1, Lon: 2.0, Lat: 48.0},
		{ID: 2, Lon: 2.0, Lat: 49.0},
		{ID: 3, Lon: 3.0, Lat: 49.0},
		{ID: 4, Lon: 3.0, Lat: 48.0},
	}
	ways := []Way{
		{ID: 10, Refs: []int64{1, 2, 3}, Tags: map[string]string{}},
		{ID: 11, Refs: []int64{3, 4, 1}, Tags: map[string]string{}},
	}
	relations := []Relation{
		{
			ID: 100,
			Tags: map[string]string{
				"boundary":    "administrative",
				"admin_level": "8",
				"name":        "Squareville",
				"ref:INSEE":   "12345",
			},
			Members: []Member{
				{Kind: "way", Ref: 10, Role: "outer"},
				{Kind: "way", Ref: 11, Role: "outer"},
			},
		},
	}
	return fakeSource{nodes: nodes, ways: ways, relations: relations}
}

func TestParseAdminsAssemblesClosedRing(t *testing.T) {
	src := squareSource()
	matcher := NewAdminMatcher([]uint32{8})

	var admins []*place.Admin
	for a, err := range ParseAdmins(src, matcher) {
		require.NoError(t, err)
		admins = append(admins, a)
	}
	require.Len(t, admins, 1)
	a := admins[0]
	assert.Equal(t, "admin:osm:relation:100", a.ID())
	assert.Equal(t, "Squareville", a.Name)
	assert.Equal(t, "12345", a.Insee)
	assert.Equal(t, uint32(8), a.Level)
	require.NotNil(t, a.Boundary)
	require.Len(t, *a.Boundary, 1)
	assert.True(t, len((*a.Boundary)[0].Outer) >= 4)
	require.NotNil(t, a.Bbox)
	assert.Equal(t, 2.0, a.Bbox.MinLon)
	assert.Equal(t, 3.0, a.Bbox.MaxLon)
}

func TestParseAdminsSkipsNonMatchingLevel(t *testing.T) {
	src := squareSource()
	matcher := NewAdminMatcher([]uint32{9})
	var admins []*place.Admin
	for a, err := range ParseAdmins(src, matcher) {
		require.NoError(t, err)
		admins = append(admins, a)
	}
	assert.Empty(t, admins)
}

func TestParseAdminsErrorsOnUnclosableRing(t *testing.T) {
	src := fakeSource{
		nodes: []Node{{ID: 1, Lon: 0, Lat: 0}, {ID: 2, Lon: 1, Lat: 1}},
		ways:  []Way{{ID: 20, Refs: []int64{1, 2}}},
		relations: []Relation{{
			ID:      200,
			Tags:    map[string]string{"boundary": "administrative", "admin_level": "8"},
			Members: []Member{{Kind: "way", Ref: 20, Role: "outer"}},
		}},
	}
	var gotErr bool
	for _, err := range ParseAdmins(src, NewAdminMatcher([]uint32{8})) {
		if err != nil {
			gotErr = true
		}
	}
	assert.True(t, gotErr)
}

func buildGeo(t *testing.T, admins ...*place.Admin) *geofinder.AdminGeoFinder {
	t.Helper()
	g := geofinder.NewBuilder()
	for _, a := range admins {
		g.Add(a)
	}
	g.Build()
	return g
}

func cityAdmin() *place.Admin {
	a := &place.Admin{Level: 8, Type: place.ZoneCity}
	a.Common.IDValue = "admin:osm:relation:999"
	a.Name = "Citytown"
	mp := place.MultiPolygon{{Outer: place.Ring{
		{Lon: 2.0, Lat: 48.0}, {Lon: 2.0, Lat: 49.0}, {Lon: 3.0, Lat: 49.0}, {Lon: 3.0, Lat: 48.0}, {Lon: 2.0, Lat: 48.0},
	}}}
	a.Boundary = &mp
	a.SetWeight(100, true)
	return a
}

func TestParseStreetsGroupsByNameAndCity(t *testing.T) {
	geo := buildGeo(t, cityAdmin())
	src := fakeSource{
		nodes: []Node{
			{ID: 1, Lon: 2.5, Lat: 48.5},
			{ID: 2, Lon: 2.6, Lat: 48.5},
		},
		ways: []Way{
			{ID: 30, Refs: []int64{1, 2}, Tags: map[string]string{"highway": "residential", "name": "Rue Centrale"}},
			{ID: 31, Refs: []int64{2, 1}, Tags: map[string]string{"highway": "residential", "name": "Rue Centrale"}},
			{ID: 32, Refs: []int64{1}, Tags: map[string]string{"highway": "footway", "name": "Chemin Piéton"}},
		},
	}

	var streets []*place.Street
	for s, err := range ParseStreets(src, geo, []string{"footway"}) {
		require.NoError(t, err)
		streets = append(streets, s)
	}
	require.Len(t, streets, 1)
	assert.Equal(t, "Rue Centrale", streets[0].Name)
	require.Len(t, streets[0].AdministrativeRegions, 1)
	assert.Equal(t, "Citytown", streets[0].AdministrativeRegions[0].Name)
}

func TestParsePoisMatchesWhitelistNotBlacklist(t *testing.T) {
	whitelist := []TagRule{{Key: "amenity", Value: "restaurant", PoiTypeID: "amenity:restaurant", PoiTypeName: "Restaurant"}}
	blacklist := []TagRule{{Key: "disused", Value: ""}}

	src := fakeSource{
		nodes: []Node{
			{ID: 1, Lon: 2.3, Lat: 48.8, Tags: map[string]string{"amenity": "restaurant", "name": "Le Central"}},
			{ID: 2, Lon: 2.4, Lat: 48.9, Tags: map[string]string{"amenity": "restaurant", "disused": "yes", "name": "Closed One"}},
		},
	}

	var pois []*place.Poi
	for p, err := range ParsePois(src, whitelist, blacklist) {
		require.NoError(t, err)
		pois = append(pois, p)
	}
	require.Len(t, pois, 1)
	assert.Equal(t, "Le Central", pois[0].Name)
	assert.Equal(t, "amenity:restaurant", pois[0].PoiType.ID)
}

func TestParsePoisWayUsesCentroid(t *testing.T) {
	whitelist := []TagRule{{Key: "leisure", Value: "park", PoiTypeID: "leisure:park", PoiTypeName: "Park"}}
	src := fakeSource{
		nodes: []Node{
			{ID: 1, Lon: 0.0, Lat: 0.0},
			{ID: 2, Lon: 2.0, Lat: 0.0},
			{ID: 3, Lon: 2.0, Lat: 2.0},
			{ID: 4, Lon: 0.0, Lat: 2.0},
		},
		ways: []Way{
			{ID: 40, Refs: []int64{1, 2, 3, 4, 1}, Tags: map[string]string{"leisure": "park", "name": "Grand Parc"}},
		},
	}
	var pois []*place.Poi
	for p, err := range ParsePois(src, whitelist, nil) {
		require.NoError(t, err)
		pois = append(pois, p)
	}
	require.Len(t, pois, 1)
	assert.InDelta(t, 0.8, pois[0].Coord().Lon, 0.01)
	assert.InDelta(t, 0.8, pois[0].Coord().Lat, 0.01)
}
