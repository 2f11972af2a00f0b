package status

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

func TestGetReportsHealthyBackend(t *testing.T) {
	fake := search.NewFake()
	r := &Reporter{Version: "1.0.0", Backend: fake}

	s := r.Get(context.Background())
	assert.Equal(t, "1.0.0", s.Version)
	assert.Equal(t, search.HealthOK, s.BackendHealth)
}

func TestGetReportsFailedBackendWithoutError(t *testing.T) {
	fake := search.NewFake()
	fake.SetHealth(search.HealthFail)
	r := &Reporter{Version: "1.0.0", Backend: fake}

	s := r.Get(context.Background())
	assert.Equal(t, search.HealthFail, s.BackendHealth)
}

func TestHandlerReturns503OnBackendFail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := search.NewFake()
	fake.SetHealth(search.HealthFail)
	r := &Reporter{Version: "1.0.0", Backend: fake}

	router := gin.New()
	router.GET("/status", r.Handler())
	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 503, rec.Code)
}
