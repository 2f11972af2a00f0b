// Package cosmogony parses the newline-delimited JSON zone stream
// produced by the cosmogony tool into place.Admin records (spec.md
// §4.D). Grounded on the original cosmogony2mimir pipeline
// (_examples/original_source/src/bin/cosmogony2mimir.rs and
// libs/tests/src/cosmogony.rs): each line is one zone, a zone without
// a boundary is skipped, and parent/child relations are resolved by a
// zone-local integer id rather than the admin's final osm-based id.
package cosmogony

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
)

// zoneJSON is the wire shape of one cosmogony zone line.
type zoneJSON struct {
	ID                  int               `json:"id"`
	OsmID               string            `json:"osm_id"`
	AdminLevel          uint32            `json:"admin_level"`
	ZoneType            string            `json:"zone_type"`
	Name                string            `json:"name"`
	Label               string            `json:"label"`
	ZipCodes            []string          `json:"zip_codes"`
	Population          float64           `json:"population"`
	Boundary            json.RawMessage   `json:"boundary"`
	Parent              *int              `json:"parent"`
	Codes               []codeJSON        `json:"codes"`
	InternationalLabels map[string]string `json:"international_labels"`
	InternationalNames  map[string]string `json:"international_names"`
}

type codeJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// zoneTypeMap translates cosmogony's PascalCase ZoneType enum to this
// module's snake_case place.ZoneType constants.
var zoneTypeMap = map[string]place.ZoneType{
	"Suburb":            place.ZoneSuburb,
	"CityDistrict":      place.ZoneCityDistrict,
	"City":              place.ZoneCity,
	"StateDistrict":     place.ZoneStateDistrict,
	"State":             place.ZoneState,
	"CountryRegion":     place.ZoneCountryRegion,
	"Country":           place.ZoneCountry,
	"NonAdministrative": place.ZoneNonAdmin,
}

func zoneType(s string) place.ZoneType {
	if zt, ok := zoneTypeMap[s]; ok {
		return zt
	}
	return place.ZoneNonAdmin
}

// adminID renders a cosmogony osm_id ("relation/215390" or
// "relation:215390") as this module's admin id scheme
// ("admin:osm:relation:215390").
func adminID(osmID string) string {
	normalized := strings.Replace(osmID, "/", ":", 1)
	return "admin:osm:" + normalized
}

// insee extracts the INSEE code from a zone's codes list, when present.
func insee(codes []codeJSON) string {
	for _, c := range codes {
		if c.Name == "ref:INSEE" {
			return c.Value
		}
	}
	return ""
}

func codesMap(codes []codeJSON) map[string]string {
	if len(codes) == 0 {
		return nil
	}
	out := make(map[string]string, len(codes))
	for _, c := range codes {
		out[c.Name] = c.Value
	}
	return out
}

// filterLangs keeps only the entries of m whose key is in langs,
// implementing spec.md §4.D's "computes i18n names/labels from a
// configured language list".
func filterLangs(m map[string]string, langs []string) place.NameMap {
	if len(m) == 0 || len(langs) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(langs))
	for _, l := range langs {
		allowed[l] = true
	}
	out := place.NameMap{}
	for k, v := range m {
		if allowed[k] {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// decodeBoundary parses a GeoJSON Polygon or MultiPolygon geometry
// into a place.MultiPolygon, reusing its MultiPolygon coordinate
// nesting for the MultiPolygon case and wrapping a single ring set for
// the Polygon case.
func decodeBoundary(raw json.RawMessage) (*place.MultiPolygon, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("cosmogony: boundary geometry: %w", err)
	}
	switch head.Type {
	case "MultiPolygon":
		var body struct {
			Coordinates place.MultiPolygon `json:"coordinates"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("cosmogony: multipolygon boundary: %w", err)
		}
		return &body.Coordinates, nil
	case "Polygon":
		var body struct {
			Coordinates [][][2]float64 `json:"coordinates"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("cosmogony: polygon boundary: %w", err)
		}
		wrapped, err := json.Marshal([][][][2]float64{body.Coordinates})
		if err != nil {
			return nil, err
		}
		var mp place.MultiPolygon
		if err := json.Unmarshal(wrapped, &mp); err != nil {
			return nil, fmt.Errorf("cosmogony: polygon boundary: %w", err)
		}
		return &mp, nil
	default:
		return nil, nil
	}
}

// toAdmin converts one zone into a place.Admin. parentID is the
// already-resolved admin id of the zone's parent, or "" when the zone
// is a root or its parent was not found.
func toAdmin(z zoneJSON, parentID string, langs []string) *place.Admin {
	a := &place.Admin{
		Insee:    insee(z.Codes),
		Level:    z.AdminLevel,
		Type:     zoneType(z.ZoneType),
		ParentID: parentID,
		Codes:    codesMap(z.Codes),
		Names:    filterLangs(z.InternationalNames, langs),
		Labels:   filterLangs(z.InternationalLabels, langs),
	}
	a.IDValue = adminID(z.OsmID)
	a.Name = z.Name
	a.SetLabel(z.Label)
	a.SetZipCodes(z.ZipCodes)
	a.SetWeight(z.Population, false)
	return a
}

// Parse streams a (possibly gzipped-elsewhere, already-decompressed)
// newline-delimited cosmogony zone file into place.Admin records.
// Zones without a boundary are skipped entirely (spec.md §4.D); zones
// kept as potential parents still resolve by their zone-local id even
// when they themselves were skipped from the output.
//
// Parse buffers the whole stream to resolve parent/child relations,
// since a child zone may precede its parent in the file; this mirrors
// the two-pass resolution the original cosmogony2mimir pipeline does
// when building each zone's administrative_regions chain.
func Parse(r func(yield func(string) bool), langs []string) func(yield func(*place.Admin, error) bool) {
	return func(yield func(*place.Admin, error) bool) {
		var zones []zoneJSON
		byID := make(map[int]zoneJSON)

		r(func(line string) bool {
			line = strings.TrimSpace(line)
			if line == "" {
				return true
			}
			var z zoneJSON
			if err := json.Unmarshal([]byte(line), &z); err != nil {
				return yield(nil, fmt.Errorf("cosmogony: invalid zone line: %w", err))
			}
			zones = append(zones, z)
			byID[z.ID] = z
			return true
		})

		resolvedID := make(map[int]string, len(zones))
		for _, z := range zones {
			resolvedID[z.ID] = adminID(z.OsmID)
		}

		for _, z := range zones {
			if len(z.Boundary) == 0 || string(z.Boundary) == "null" {
				continue
			}
			boundary, err := decodeBoundary(z.Boundary)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if boundary == nil {
				continue
			}

			parentID := ""
			if z.Parent != nil {
				parentID = resolvedID[*z.Parent]
			}
			a := toAdmin(z, parentID, langs)
			a.Boundary = boundary
			a.Bbox = boundaryBbox(boundary)
			if !yield(a, nil) {
				return
			}
		}
	}
}

func boundaryBbox(mp *place.MultiPolygon) *place.Rect {
	if mp == nil || len(*mp) == 0 {
		return nil
	}
	r := mp.Bounds()
	return &r
}

// LineScanner adapts an io.Reader-backed bufio.Scanner to the
// func(yield func(string) bool) shape Parse expects, so callers don't
// need to hand-write the loop for the common file/stdin case.
func LineScanner(scan *bufio.Scanner) func(yield func(string) bool) {
	return func(yield func(string) bool) {
		for scan.Scan() {
			if !yield(scan.Text()) {
				return
			}
		}
	}
}
