package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// RequestMetrics counts requests and records their latency per route.
// Instruments come from the global meter provider, so SetupMetrics must run
// first for them to be exported.
func RequestMetrics(serviceName string) gin.HandlerFunc {
	meter := otel.Meter(serviceName)

	requests, _ := meter.Int64Counter("http_requests_total",
		otelmetric.WithDescription("HTTP requests served"))
	latency, _ := meter.Float64Histogram("http_request_duration_seconds",
		otelmetric.WithDescription("HTTP request latency"),
		otelmetric.WithUnit("s"))

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := otelmetric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)

		requests.Add(c.Request.Context(), 1, attrs)
		latency.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
	}
}
