// Package middleware provides the gin middleware chain: CORS, request
// ids, structured logging, panic recovery, and Prometheus
// instrumentation — grounded on the pack's gin middleware idiom
// (logger/recovery pattern) with the teacher's auth middleware dropped
// entirely, since this platform has no auth surface (spec Non-goals).
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/mimir-geocoder/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// RequestID stamps every request with an id, reusing an inbound one
// when the caller already supplies it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// CORS allows any origin; the API is a public read-only geocoder with
// no session state to protect.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// Logger logs one structured entry per request, including its
// request_id, mirroring the pack's logger-middleware shape.
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetString("request_id"),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request completed")
		}
	}
}

// Recovery converts a panic into a 500 JSON envelope instead of
// crashing the process.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithField("error", err).Error("panic recovered")
				c.AbortWithStatusJSON(500, gin.H{"short": "internal_error", "long": "an unexpected error occurred"})
			}
		}()
		c.Next()
	}
}

// Metrics records request duration, count, and in-flight gauge against
// the route label table (internal/metrics.RouteLabel).
func Metrics(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg.InFlight.Inc()
		start := time.Now()
		c.Next()
		reg.InFlight.Dec()

		route := metrics.RouteLabel(c.Request.URL.Path)
		status := statusBucket(c.Writer.Status())
		reg.RequestDuration.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(start).Seconds())
		reg.RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
	}
}

func statusBucket(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
