package geofinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

func square(minLon, minLat, maxLon, maxLat float64) *place.MultiPolygon {
	ring := place.Ring{
		{Lon: minLon, Lat: minLat},
		{Lon: maxLon, Lat: minLat},
		{Lon: maxLon, Lat: maxLat},
		{Lon: minLon, Lat: maxLat},
		{Lon: minLon, Lat: minLat},
	}
	mp := place.MultiPolygon{{Outer: ring}}
	return &mp
}

func admin(id string, level uint32, boundary *place.MultiPolygon) *place.Admin {
	a := &place.Admin{Level: level, Boundary: boundary}
	a.IDValue = id
	return a
}

func TestNoOverlap(t *testing.T) {
	g := NewBuilder()
	g.Add(admin("a", 8, square(0, 0, 1, 1)))
	g.Add(admin("b", 8, square(10, 10, 11, 11)))
	g.Build()

	hits := g.Query(place.Coord{Lon: 0.5, Lat: 0.5})
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID())
}

func TestOverlapNearby(t *testing.T) {
	g := NewBuilder()
	g.Add(admin("a", 8, square(0, 0, 1, 1)))
	g.Add(admin("b", 8, square(0.9, 0.9, 2, 2)))
	g.Build()

	hits := g.Query(place.Coord{Lon: 0.95, Lat: 0.95})
	require.Len(t, hits, 2)
}

func TestOverlap(t *testing.T) {
	g := NewBuilder()
	g.Add(admin("country", 2, square(-1, -1, 10, 10)))
	g.Add(admin("city", 8, square(0, 0, 1, 1)))
	g.Build()

	hits := g.Query(place.Coord{Lon: 0.5, Lat: 0.5})
	require.Len(t, hits, 2)
	assert.Equal(t, "country", hits[0].ID(), "lower level (larger admin) sorts first")
	assert.Equal(t, "city", hits[1].ID())
}

func TestOneAdmin(t *testing.T) {
	g := NewBuilder()
	g.Add(admin("only", 8, square(0, 0, 1, 1)))
	g.Build()

	assert.Empty(t, g.Query(place.Coord{Lon: 5, Lat: 5}))
	assert.Len(t, g.Query(place.Coord{Lon: 0.5, Lat: 0.5}), 1)
}

func TestAdminWithoutBoundaryNeverMatches(t *testing.T) {
	g := NewBuilder()
	g.Add(admin("no-boundary", 8, nil))
	g.Build()

	assert.Empty(t, g.Query(place.Coord{Lon: 0, Lat: 0}))
	assert.Len(t, g.All(), 1)
}

func TestPointInMultiPolygonHole(t *testing.T) {
	outer := place.Ring{
		{Lon: 0, Lat: 0}, {Lon: 10, Lat: 0}, {Lon: 10, Lat: 10}, {Lon: 0, Lat: 10}, {Lon: 0, Lat: 0},
	}
	hole := place.Ring{
		{Lon: 4, Lat: 4}, {Lon: 6, Lat: 4}, {Lon: 6, Lat: 6}, {Lon: 4, Lat: 6}, {Lon: 4, Lat: 4},
	}
	mp := place.MultiPolygon{{Outer: outer, Holes: []place.Ring{hole}}}

	assert.True(t, PointInMultiPolygon(place.Coord{Lon: 1, Lat: 1}, mp))
	assert.False(t, PointInMultiPolygon(place.Coord{Lon: 5, Lat: 5}, mp), "inside the hole")
	assert.False(t, PointInMultiPolygon(place.Coord{Lon: 20, Lat: 20}, mp))
}
