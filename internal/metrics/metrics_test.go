package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteLabelExactMatches(t *testing.T) {
	assert.Equal(t, "autocomplete", RouteLabel("/api/v1/autocomplete"))
	assert.Equal(t, "status", RouteLabel("/api/v1/status"))
}

func TestRouteLabelFeatureWildcard(t *testing.T) {
	assert.Equal(t, "features", RouteLabel("/api/v1/features/admin:1"))
}

func TestRouteLabelUnknownFallsBack(t *testing.T) {
	assert.Equal(t, "unknown", RouteLabel("/nope"))
}

func TestHandlerServesPrometheusFormat(t *testing.T) {
	m := New()
	m.RequestsTotal.WithLabelValues("autocomplete", "GET", "200").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "mimir_geocoder_http_requests_total")
}
