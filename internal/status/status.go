// Package status implements the aggregated status endpoint of spec.md
// §4.K, grounded on the teacher's health/ready check handlers in
// cmd/main.go, generalized from a simple up/down probe into the
// {version, backend health, backend version} object the spec asks for.
package status

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/mimir-geocoder/internal/search"
)

// Status is the JSON shape of GET /status.
type Status struct {
	Version        string        `json:"version"`
	BackendHealth  search.Health `json:"backend_health"`
	BackendVersion string        `json:"backend_version"`
}

// Reporter aggregates process version with live backend health.
type Reporter struct {
	Version string
	Backend search.StatusReporter
}

// Get queries the backend and reports status even when the backend
// call fails: a failed health probe is reported as HealthFail, not an
// error, so GET /status always answers (with 503 set by the caller).
func (r *Reporter) Get(ctx context.Context) Status {
	backendStatus, err := r.Backend.Status(ctx)
	if err != nil {
		return Status{Version: r.Version, BackendHealth: search.HealthFail}
	}
	return Status{Version: r.Version, BackendHealth: backendStatus.Health, BackendVersion: backendStatus.Version}
}

// Handler serves GET /status: 200 with the aggregated object, or 503
// when the backend reports HealthFail.
func (r *Reporter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := r.Get(c.Request.Context())
		code := http.StatusOK
		if s.BackendHealth == search.HealthFail {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, s)
	}
}
