package dsl

import (
	"fmt"
	"math"
	"strings"

	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// forwardQueryBy lists the fields and per-field weights of the
// mandatory text clause, in the order spec.md §4.I names them.
func forwardQueryBy(s Settings) (fields string, weights string) {
	names := []string{"label", "label._2gram", "label._3gram", "name"}
	ws := []float64{
		s.StringQuery.Boosts.Label,
		s.StringQuery.Boosts.LabelNgram,
		s.StringQuery.Boosts.LabelNgram,
		s.StringQuery.Boosts.Name,
	}
	wstrs := make([]string, len(ws))
	for i, w := range ws {
		wstrs[i] = fmt.Sprintf("%g", w*s.StringQuery.Global)
	}
	return strings.Join(names, ","), strings.Join(wstrs, ",")
}

// adminWeight computes the admin-weight value of spec.md §4.I
// ("log1p(weight*1e6) * weights.max_radius.admin") for one weight. The
// queries built in this package do not use it: BuildForward's sort_by
// orders by text match (then by distance when a focus is given) only,
// and no admin-weight boost is sent to the backend.
func adminWeight(weight float64, s Settings) float64 {
	return math.Log1p(weight*1e6) * s.ImportanceQuery.Weights.MaxRadius.Admin
}

// BuildForward constructs the forward-geocoder query.
func BuildForward(q string, f Filter, s Settings) search.Query {
	fields, weights := forwardQueryBy(s)

	raw := map[string]any{
		"q":                   q,
		"query_by":            fields,
		"query_by_weights":    weights,
		"sort_by":             "_text_match:desc",
		"prefix":              true,
	}

	var filterClauses []string
	if len(f.Datasets) > 0 {
		filterClauses = append(filterClauses, fmt.Sprintf("dataset:[%s]", strings.Join(f.Datasets, ",")))
	}
	if len(f.ZoneTypes) > 0 {
		filterClauses = append(filterClauses, fmt.Sprintf("zone_type:[%s]", strings.Join(f.ZoneTypes, ",")))
	}
	if len(f.PoiTypes) > 0 {
		filterClauses = append(filterClauses, fmt.Sprintf("poi_type.id:[%s]", strings.Join(f.PoiTypes, ",")))
	}
	if len(filterClauses) > 0 {
		raw["filter_by"] = strings.Join(filterClauses, " && ")
	}

	if f.Focus != nil {
		raw["sort_by"] = fmt.Sprintf("_text_match:desc,coord(%g,%g):asc", f.Focus.Lat, f.Focus.Lon)
		raw["proximity_decay"] = string(s.ImportanceQuery.Proximity.Decay.Func)
		raw["proximity_scale_km"] = s.ImportanceQuery.Proximity.Decay.Scale
		raw["proximity_weight"] = s.ImportanceQuery.Proximity.Weight
	}

	if f.Shape != nil {
		raw["shape"] = f.Shape.Geometry
		raw["shape_scope"] = f.Shape.Scope
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	return search.Query{Raw: raw, Limit: limit, Offset: f.Offset}
}

// BuildReverse constructs the reverse-geocoder query: a match-all
// filtered by a geo-distance of radiusMeters around coord, sorted by
// ascending arc distance.
func BuildReverse(coord place.Coord, radiusMeters float64, f Filter) search.Query {
	raw := map[string]any{
		"q":         "*",
		"query_by":  "label",
		"filter_by": fmt.Sprintf("coord:(%g, %g, %g km)", coord.Lat, coord.Lon, radiusMeters/1000.0),
		"sort_by":   fmt.Sprintf("coord(%g,%g):asc", coord.Lat, coord.Lon),
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	return search.Query{Raw: raw, Limit: limit, Offset: f.Offset}
}

// BuildFeature constructs the get-by-id query: an ids-terms clause
// combined with a dataset restriction.
func BuildFeature(ids []string, datasets []string) search.Query {
	raw := map[string]any{
		"q":         "*",
		"query_by":  "label",
		"filter_by": fmt.Sprintf("id:[%s]", strings.Join(ids, ",")),
	}
	if len(datasets) > 0 {
		raw["filter_by"] = raw["filter_by"].(string) + fmt.Sprintf(" && dataset:[%s]", strings.Join(datasets, ","))
	}
	return search.Query{Raw: raw, Limit: len(ids)}
}

// AdminWeightRank exposes adminWeight outside the package. No query
// built here sorts on its value.
func AdminWeightRank(weight float64, s Settings) float64 { return adminWeight(weight, s) }
