// Package geocode implements the forward/reverse/feature HTTP handlers
// of spec.md §4.J/§4.L, grounded on the teacher's
// internal/handlers/search.go request-bind-validate-dispatch idiom,
// generalized from Typesense collection search to this platform's
// doctype/dataset index resolution and GeoJSON response shape.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/mimir-geocoder/internal/apierror"
	"github.com/tesseract-hub/mimir-geocoder/internal/cache"
	"github.com/tesseract-hub/mimir-geocoder/internal/dsl"
	"github.com/tesseract-hub/mimir-geocoder/internal/place"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// Handler serves the forward, reverse, and feature-by-id endpoints
// against a Backend's Searcher/Getter ports. Cache is optional: a nil
// Cache disables the §6 http_cache_duration response cache entirely.
type Handler struct {
	Backend             search.Backend
	Settings            dsl.Settings
	Version             string
	AutocompleteTimeout time.Duration
	ReverseTimeout      time.Duration
	FeaturesTimeout     time.Duration
	Cache               *cache.Cache
}

type shapeBody struct {
	Shape json.RawMessage `json:"shape"`
}

// timeoutFrom picks the caller's ?timeout=<ms> override when present
// and positive, falling back to def.
func timeoutFrom(c *gin.Context, def time.Duration) time.Duration {
	if raw := c.Query("timeout"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func fail(c *gin.Context, err error) {
	status, env := apierror.ToEnvelope(err)
	c.AbortWithStatusJSON(status, env)
}

// Forward handles GET and POST /autocomplete.
func (h *Handler) Forward(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		fail(c, apierror.New(apierror.InputValidation, "missing_query", "q is required and must be non-empty"))
		return
	}

	focus, err := focusFromQuery(c)
	if err != nil {
		fail(c, err)
		return
	}

	var shape *dsl.Shape
	if c.Request.Method == http.MethodPost {
		var body shapeBody
		if err := c.ShouldBindJSON(&body); err == nil && len(body.Shape) > 0 {
			shape = &dsl.Shape{Geometry: body.Shape, Scope: c.QueryArray("shape_scope[]")}
		}
	}

	limit, offset, err := limitOffsetFromQuery(c)
	if err != nil {
		fail(c, err)
		return
	}

	doctypes := resolveDoctypes(c.QueryArray("type[]"))
	allData := c.Query("_all_data") == "true" || c.Query("_all_data") == "1"
	indices := indicesFor(doctypes, c.QueryArray("pt_dataset[]"), c.QueryArray("poi_dataset[]"), allData)

	filter := dsl.Filter{
		Focus:     focus,
		Shape:     shape,
		ZoneTypes: c.QueryArray("zone_type[]"),
		PoiTypes:  c.QueryArray("poi_type[]"),
		Limit:     limit,
		Offset:    offset,
	}
	query := dsl.BuildForward(q, filter, h.Settings)

	var cacheKey string
	if h.Cache != nil {
		cacheKey = cache.Key(indices, query.Raw)
		if cached, ok := h.Cache.Get(cacheKey); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutFrom(c, h.AutocompleteTimeout))
	defer cancel()

	result, err := h.Backend.Search(ctx, indices, query)
	if err != nil {
		fail(c, apierror.Wrap(apierror.DocumentRetrieval, "search_failed", err))
		return
	}
	fc := newFeatureCollection(h.Version, q, result.Hits)
	if h.Cache != nil {
		h.Cache.Set(cacheKey, fc)
	}
	c.JSON(http.StatusOK, fc)
}

// Reverse handles GET /reverse: searches only street and address
// indices around a required coordinate.
func (h *Handler) Reverse(c *gin.Context) {
	lat, lon, err := requiredLatLon(c)
	if err != nil {
		fail(c, err)
		return
	}

	indices := indicesFor([]string{"street", "addr"}, nil, nil, false)
	focus := place.Coord{Lon: lon, Lat: lat}
	query := dsl.BuildReverse(focus, h.Settings.ReverseQuery.Radius, dsl.Filter{Limit: 1})

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutFrom(c, h.ReverseTimeout))
	defer cancel()

	result, err := h.Backend.Search(ctx, indices, query)
	if err != nil {
		fail(c, apierror.Wrap(apierror.DocumentRetrieval, "search_failed", err))
		return
	}
	for i := range result.Hits {
		result.Hits[i].Doc = withDistance(result.Hits[i].Doc, focus)
	}
	c.JSON(http.StatusOK, newFeatureCollection(h.Version, "", result.Hits))
}

// Feature handles GET /features/{id}: a get-by-id across the public
// index of every doctype, plus the requested pt/poi dataset indices
// when _all_data is set. No type filter is applied.
func (h *Handler) Feature(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		fail(c, apierror.New(apierror.InputValidation, "missing_id", "feature id is required"))
		return
	}

	allData := c.Query("_all_data") == "true" || c.Query("_all_data") == "1"
	indices := indicesFor(docTypes, c.QueryArray("pt_dataset[]"), c.QueryArray("poi_dataset[]"), allData)

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutFrom(c, h.FeaturesTimeout))
	defer cancel()

	docs, err := h.Backend.GetByID(ctx, indices, []string{id})
	if err != nil {
		fail(c, apierror.Wrap(apierror.DocumentRetrieval, "get_failed", err))
		return
	}
	doc, ok := docs[id]
	if !ok {
		fail(c, apierror.New(apierror.NotFound, "feature_not_found", "no document with id %q", id))
		return
	}
	c.JSON(http.StatusOK, newFeatureCollection(h.Version, "", []search.Hit{{Doc: doc, Score: 1}}))
}

func focusFromQuery(c *gin.Context) (*place.Coord, error) {
	latS, lonS := c.Query("lat"), c.Query("lon")
	if latS == "" && lonS == "" {
		return nil, nil
	}
	if latS == "" || lonS == "" {
		return nil, apierror.New(apierror.InputValidation, "incomplete_focus", "lat and lon must both be present")
	}
	lat, lon, err := parseLatLon(latS, lonS)
	if err != nil {
		return nil, err
	}
	return &place.Coord{Lon: lon, Lat: lat}, nil
}

func requiredLatLon(c *gin.Context) (lat, lon float64, err error) {
	latS, lonS := c.Query("lat"), c.Query("lon")
	if latS == "" || lonS == "" {
		return 0, 0, apierror.New(apierror.InputValidation, "missing_coord", "lat and lon are required")
	}
	return parseLatLon(latS, lonS)
}

func parseLatLon(latS, lonS string) (lat, lon float64, err error) {
	lat, err1 := strconv.ParseFloat(latS, 64)
	lon, err2 := strconv.ParseFloat(lonS, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, apierror.New(apierror.InputValidation, "invalid_coord", "lat/lon must be numeric")
	}
	if !(place.Coord{Lon: lon, Lat: lat}).Valid() {
		return 0, 0, apierror.New(apierror.InputValidation, "coord_out_of_bounds", "lat must be in [-90,90], lon in [-180,180]")
	}
	return lat, lon, nil
}

func limitOffsetFromQuery(c *gin.Context) (limit, offset int, err error) {
	limit = 10
	if raw := c.Query("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n <= 0 {
			return 0, 0, apierror.New(apierror.InputValidation, "invalid_limit", "limit must be a positive integer")
		}
		limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return 0, 0, apierror.New(apierror.InputValidation, "invalid_offset", "offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}
