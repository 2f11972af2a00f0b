package place

import (
	"encoding/json"
	"fmt"
)

// Coord is a geographic point. Longitude and latitude are validated at
// the boundary (parser and API binding); Coord itself only enforces the
// bounds during unmarshal.
type Coord struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the coordinate is within the legal WGS84 range.
func (c Coord) Valid() bool {
	return c.Lon >= -180 && c.Lon <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// UnmarshalJSON accepts both the struct form {"lon":.., "lat":..} and the
// tuple form [lon, lat]. Any other shape is rejected (Open Question 2).
func (c *Coord) UnmarshalJSON(data []byte) error {
	var tuple [2]float64
	if err := json.Unmarshal(data, &tuple); err == nil {
		c.Lon, c.Lat = tuple[0], tuple[1]
		if !c.Valid() {
			return fmt.Errorf("coord: out of range (lon %g, lat %g)", c.Lon, c.Lat)
		}
		return nil
	}

	var obj struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("coord: neither tuple [lon,lat] nor {lon,lat} object: %w", err)
	}
	c.Lon, c.Lat = obj.Lon, obj.Lat
	if !c.Valid() {
		return fmt.Errorf("coord: out of range (lon %g, lat %g)", c.Lon, c.Lat)
	}
	return nil
}

// MarshalJSON always emits the struct form.
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	}{c.Lon, c.Lat})
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether the point lies within the rectangle, inclusive.
func (r Rect) Contains(c Coord) bool {
	return c.Lon >= r.MinLon && c.Lon <= r.MaxLon && c.Lat >= r.MinLat && c.Lat <= r.MaxLat
}

// Ring is a closed loop of coordinates, outer or inner (hole).
type Ring []Coord

// Polygon is an outer ring plus zero or more interior holes.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// MultiPolygon is an administrative boundary: zero or more disjoint polygons.
type MultiPolygon []Polygon

// Bounds computes the axis-aligned bounding box of the multi-polygon.
// Returns the zero Rect if the multi-polygon is empty.
func (m MultiPolygon) Bounds() Rect {
	if len(m) == 0 {
		return Rect{}
	}
	first := true
	var r Rect
	for _, poly := range m {
		for _, c := range poly.Outer {
			if first {
				r = Rect{MinLon: c.Lon, MaxLon: c.Lon, MinLat: c.Lat, MaxLat: c.Lat}
				first = false
				continue
			}
			if c.Lon < r.MinLon {
				r.MinLon = c.Lon
			}
			if c.Lon > r.MaxLon {
				r.MaxLon = c.Lon
			}
			if c.Lat < r.MinLat {
				r.MinLat = c.Lat
			}
			if c.Lat > r.MaxLat {
				r.MaxLat = c.Lat
			}
		}
	}
	return r
}

// multiPolygonJSON mirrors the GeoJSON MultiPolygon coordinate nesting,
// matching the wire shape the original cosmogony/OSM producers emit.
type multiPolygonJSON [][][][2]float64

// MarshalJSON renders the multi-polygon as GeoJSON-shaped coordinates.
func (m MultiPolygon) MarshalJSON() ([]byte, error) {
	out := make(multiPolygonJSON, 0, len(m))
	for _, poly := range m {
		rings := make([][][2]float64, 0, 1+len(poly.Holes))
		rings = append(rings, ringToJSON(poly.Outer))
		for _, h := range poly.Holes {
			rings = append(rings, ringToJSON(h))
		}
		out = append(out, rings)
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the GeoJSON MultiPolygon coordinate nesting.
func (m *MultiPolygon) UnmarshalJSON(data []byte) error {
	var raw multiPolygonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("multipolygon: %w", err)
	}
	polys := make(MultiPolygon, 0, len(raw))
	for _, rings := range raw {
		if len(rings) == 0 {
			continue
		}
		p := Polygon{Outer: ringFromJSON(rings[0])}
		for _, h := range rings[1:] {
			p.Holes = append(p.Holes, ringFromJSON(h))
		}
		polys = append(polys, p)
	}
	*m = polys
	return nil
}

func ringToJSON(r Ring) [][2]float64 {
	out := make([][2]float64, len(r))
	for i, c := range r {
		out[i] = [2]float64{c.Lon, c.Lat}
	}
	return out
}

func ringFromJSON(raw [][2]float64) Ring {
	r := make(Ring, len(raw))
	for i, p := range raw {
		r[i] = Coord{Lon: p[0], Lat: p[1]}
	}
	return r
}
