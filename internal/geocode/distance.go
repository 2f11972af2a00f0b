package geocode

import (
	"github.com/golang/geo/s2"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

const earthRadiusMeters = 6371000.0

// coordFromDoc extracts the coord field Typesense documents carry as a
// {"lon":..,"lat":..} object, mirroring pointGeometry's decoding.
func coordFromDoc(doc search.Doc) (place.Coord, bool) {
	raw, ok := doc["coord"]
	if !ok {
		return place.Coord{}, false
	}
	coordMap, ok := raw.(map[string]any)
	if !ok {
		return place.Coord{}, false
	}
	lon, lonOK := toFloat(coordMap["lon"])
	lat, latOK := toFloat(coordMap["lat"])
	if !lonOK || !latOK {
		return place.Coord{}, false
	}
	return place.Coord{Lon: lon, Lat: lat}, true
}

// arcDistanceMeters is the great-circle distance between two
// coordinates, computed the way internal/geofinder buckets admins
// (golang/geo/s2) rather than a hand-rolled haversine.
func arcDistanceMeters(a, b place.Coord) float64 {
	ll1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	ll2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return float64(ll1.Distance(ll2)) * earthRadiusMeters
}

// withDistance returns a shallow copy of doc stamped with the
// query-time distance (meters) to from (spec.md §3's "distance: meters
// to the query's focus point; not persisted"). The backend's Fake hands
// out its stored map by reference, so this never mutates it.
func withDistance(doc search.Doc, from place.Coord) search.Doc {
	coord, ok := coordFromDoc(doc)
	if !ok {
		return doc
	}
	out := make(search.Doc, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["distance"] = arcDistanceMeters(from, coord)
	return out
}
