package geocode

import (
	"encoding/json"

	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// Feature is one GeoJSON Feature of a response FeatureCollection, with
// the flattened place fields nested under properties.geocoding per
// spec.md §6.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the stable response body shared by the forward,
// reverse, and feature handlers.
type FeatureCollection struct {
	Type      string         `json:"type"`
	Geocoding map[string]any `json:"geocoding"`
	Features  []Feature      `json:"features"`
}

// geocodingKeys are the flattened place fields the response carries
// under properties.geocoding, in the order spec.md §6 lists them.
var geocodingKeys = []string{
	"id", "type", "label", "name", "house_number", "street", "zip_codes",
	"city", "admin", "admins", "zone_type", "poi_type", "country_codes",
	"codes", "bbox", "commercial_modes", "physical_modes", "comments",
	"timezone", "distance",
}

func geocodingProperties(doc search.Doc) map[string]any {
	out := make(map[string]any, len(geocodingKeys))
	for _, k := range geocodingKeys {
		if v, ok := doc[k]; ok && v != nil {
			out[k] = v
		}
	}
	return out
}

// pointGeometry renders doc's coord field as a GeoJSON Point geometry;
// it returns nil if the document carries no usable coordinate.
func pointGeometry(doc search.Doc) json.RawMessage {
	raw, ok := doc["coord"]
	if !ok {
		return nil
	}
	coordMap, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	lon, lonOK := toFloat(coordMap["lon"])
	lat, latOK := toFloat(coordMap["lat"])
	if !lonOK || !latOK {
		return nil
	}
	b, _ := json.Marshal(struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}{"Point", []float64{lon, lat}})
	return b
}

func toFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// hitToFeature builds one Feature from a search hit's raw document.
func hitToFeature(doc search.Doc) Feature {
	return Feature{
		Type:       "Feature",
		Geometry:   pointGeometry(doc),
		Properties: map[string]any{"geocoding": geocodingProperties(doc)},
	}
}

// newFeatureCollection shapes a set of hits into the response body,
// stamping the geocoding metadata object with the service version and
// the original query string.
func newFeatureCollection(version, query string, hits []search.Hit) FeatureCollection {
	features := make([]Feature, len(hits))
	for i, h := range hits {
		features[i] = hitToFeature(h.Doc)
	}
	return FeatureCollection{
		Type:      "FeatureCollection",
		Geocoding: map[string]any{"version": version, "query": query},
		Features:  features,
	}
}
