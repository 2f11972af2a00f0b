package geofinder

import "github.com/tesseract-hub/mimir-geocoder/internal/place"

// PointInMultiPolygon reports whether c lies inside mp: inside some
// polygon's outer ring and outside all of that polygon's holes.
//
// This is a plain ray-casting test rather than golang/geo's spherical
// polygon containment, because cosmogony/OSM boundaries arrive as flat
// lon/lat rings, not s2.Loop; converting every admin boundary just to
// reuse s2's containment check would cost more code than this test.
func PointInMultiPolygon(c place.Coord, mp place.MultiPolygon) bool {
	for _, poly := range mp {
		if !pointInRing(c, poly.Outer) {
			continue
		}
		inHole := false
		for _, h := range poly.Holes {
			if pointInRing(c, h) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// pointInRing implements the standard even-odd ray-casting test (PNPOLY).
func pointInRing(c place.Coord, ring place.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > c.Lat) != (yj > c.Lat) &&
			c.Lon < (xj-xi)*(c.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
