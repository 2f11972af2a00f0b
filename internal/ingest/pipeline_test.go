package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/lifecycle"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func cityAdmin(id, insee string, level uint32) *place.Admin {
	a := &place.Admin{Insee: insee, Level: level, Type: place.ZoneCity}
	a.Common.IDValue = id
	a.Name = "Testville"
	a.Common.CoordValue = place.Coord{Lon: 2.3, Lat: 48.8}
	a.SetWeight(10, true)
	return a
}

func TestToDocFromDocRoundTrips(t *testing.T) {
	a := cityAdmin("admin:1", "75056", 8)
	doc, err := ToDoc(a)
	require.NoError(t, err)
	assert.Equal(t, "admin:1", doc["id"])
	assert.Equal(t, "75056", doc["insee"])

	var back place.Admin
	require.NoError(t, FromDoc(doc, &back))
	assert.Equal(t, a.ID(), back.ID())
	assert.Equal(t, a.Insee, back.Insee)
	assert.Equal(t, a.Coord(), back.Coord())
}

func TestPublishRunsFullLifecycle(t *testing.T) {
	backend := search.NewFake()
	mgr := lifecycle.NewManager(backend, nil)

	records := []place.Members{cityAdmin("admin:1", "75056", 8), cityAdmin("admin:2", "69123", 8)}
	outcome, index, err := Publish(context.Background(), mgr, "admin", "fr", lifecycle.Public, records, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Created)
	assert.NotEmpty(t, index)

	resolved, ok, err := backend.ResolveAlias(context.Background(), lifecycle.RootDoctypeDataset("admin", "fr"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, index, resolved)
}

func TestPublishUnknownDoctypeErrors(t *testing.T) {
	backend := search.NewFake()
	mgr := lifecycle.NewManager(backend, nil)
	_, _, err := Publish(context.Background(), mgr, "bogus", "fr", lifecycle.Public, nil, nil)
	assert.Error(t, err)
}

func TestLoadAdminGeoFinderQueriesPublishedAdmins(t *testing.T) {
	backend := search.NewFake()
	mgr := lifecycle.NewManager(backend, nil)

	admin := cityAdmin("admin:1", "75056", 8)
	admin.Boundary = &place.MultiPolygon{{Outer: place.Ring{
		{Lon: 2, Lat: 48}, {Lon: 3, Lat: 48}, {Lon: 3, Lat: 49}, {Lon: 2, Lat: 49}, {Lon: 2, Lat: 48},
	}}}
	records := []place.Members{admin}
	_, index, err := Publish(context.Background(), mgr, "admin", "fr", lifecycle.Public, records, nil)
	require.NoError(t, err)

	geo := LoadAdminGeoFinder(context.Background(), backend, index)
	hits := geo.Query(place.Coord{Lon: 2.3, Lat: 48.8})
	require.Len(t, hits, 1)
	assert.Equal(t, "admin:1", hits[0].ID())
}
