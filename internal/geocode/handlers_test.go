package geocode

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/dsl"
	"github.com/tesseract-hub/mimir-geocoder/internal/lifecycle"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func seedFake(t *testing.T) *search.Fake {
	t.Helper()
	fake := search.NewFake()
	ctx := context.Background()
	idx := lifecycle.RootDoctype("street")
	require.NoError(t, fake.CreateIndex(ctx, idx, search.Schema{}))
	_, err := fake.InsertBatch(ctx, idx, []search.Doc{
		{
			"id": "street:1", "type": "street", "label": "Rue de Rivoli (Paris)",
			"name": "Rue de Rivoli", "coord": map[string]any{"lon": 2.3522, "lat": 48.8566},
		},
	})
	require.NoError(t, err)
	return fake
}

func newHandler(fake *search.Fake) *Handler {
	return &Handler{
		Backend:             fake,
		Settings:            dsl.Default(),
		Version:             "test",
		AutocompleteTimeout: time.Second,
		ReverseTimeout:      time.Second,
		FeaturesTimeout:     time.Second,
	}
}

func TestForwardRequiresQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHandler(search.NewFake())
	r := gin.New()
	r.GET("/autocomplete", h.Forward)

	req := httptest.NewRequest("GET", "/autocomplete", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestForwardReturnsFeatureCollection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHandler(seedFake(t))
	r := gin.New()
	r.GET("/autocomplete", h.Forward)

	req := httptest.NewRequest("GET", "/autocomplete?q=rivoli", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var fc FeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.NotNil(t, fc.Features[0].Geometry)
}

func TestReverseRequiresBothCoords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHandler(search.NewFake())
	r := gin.New()
	r.GET("/reverse", h.Reverse)

	req := httptest.NewRequest("GET", "/reverse?lat=48.85", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestReverseRejectsOutOfRangeCoord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHandler(search.NewFake())
	r := gin.New()
	r.GET("/reverse", h.Reverse)

	req := httptest.NewRequest("GET", "/reverse?lat=999&lon=2.3", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestReverseReturnsNearestHitWithDistance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHandler(seedFake(t))
	r := gin.New()
	r.GET("/reverse", h.Reverse)

	req := httptest.NewRequest("GET", "/reverse?lat=48.8566&lon=2.3522", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var fc FeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, 1)
	geocoding, ok := fc.Features[0].Properties["geocoding"].(map[string]any)
	require.True(t, ok)
	distance, ok := geocoding["distance"].(float64)
	require.True(t, ok, "geocoding.distance must be populated")
	assert.Less(t, distance, h.Settings.ReverseQuery.Radius)
}

func TestFeatureNotFoundReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHandler(search.NewFake())
	r := gin.New()
	r.GET("/features/:id", h.Feature)

	req := httptest.NewRequest("GET", "/features/admin:missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestFeatureFoundReturnsSingleFeature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := seedFake(t)
	h := newHandler(fake)
	r := gin.New()
	r.GET("/features/:id", h.Feature)

	req := httptest.NewRequest("GET", "/features/street:1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var fc FeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, 1)
}
