// Package metrics wraps a single non-global prometheus.Registry
// (REDESIGN FLAG 6: the source's lazy_static global counters and
// routing-table match become one struct built at startup, not package
// globals) and a const route-label table used by the HTTP middleware.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// Registry owns every counter/histogram this process exposes. One
// instance per process, constructed in cmd/bragi/main.go and threaded
// through the middleware — never a package-level var.
type Registry struct {
	reg *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	InFlight        prometheus.Gauge
	BulkOutcome     *prometheus.CounterVec
}

// New builds and registers every metric on a fresh registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mimir_geocoder_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mimir_geocoder_http_requests_total",
			Help: "HTTP requests by route, method, status.",
		}, []string{"route", "method", "status"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mimir_geocoder_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		BulkOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mimir_geocoder_bulk_documents_total",
			Help: "Bulk insertion outcomes by doctype and result kind.",
		}, []string{"doctype", "kind"}),
	}
	reg.MustRegister(m.RequestDuration, m.RequestsTotal, m.InFlight, m.BulkOutcome)
	return m
}

// Handler exposes the Prometheus text format for GET /metrics.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// routeLabels is the const exact-match table the source's lazy_static
// routing table becomes; RouteLabel falls back to a single wildcard
// entry for any path under /api/v1/features/, matching REDESIGN FLAG 6.
var routeLabels = map[string]string{
	"/api/v1/":             "root",
	"/api/v1/status":       "status",
	"/metrics":             "metrics",
	"/api/v1/autocomplete": "autocomplete",
	"/api/v1/reverse":      "reverse",
}

const featuresPrefix = "/api/v1/features/"

// RouteLabel maps a request path to its metric label via the exact
// table, with one wildcard for feature lookups by id.
func RouteLabel(path string) string {
	if label, ok := routeLabels[path]; ok {
		return label
	}
	if strings.HasPrefix(path, featuresPrefix) {
		return "features"
	}
	return "unknown"
}
