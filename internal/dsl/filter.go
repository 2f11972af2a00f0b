package dsl

import (
	"encoding/json"
	"time"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

// Shape is a GeoJSON geometry filter restricted to a scope of types
// (spec.md §4.I "Optional filter"): documents whose type is in Scope
// must intersect Geometry; documents outside Scope are unconstrained.
type Shape struct {
	Geometry json.RawMessage
	Scope    []string
}

// Filter is the query-time filter record: an optional focus coordinate,
// an optional shape, and the dataset/zone-type/poi-type/type
// restrictions forwarded from the HTTP layer.
type Filter struct {
	Focus      *place.Coord
	Shape      *Shape
	Types      []string
	ZoneTypes  []string
	PoiTypes   []string
	Datasets   []string
	PoiDatasets []string
	Limit      int
	Offset     int
	Timeout    time.Duration
}
