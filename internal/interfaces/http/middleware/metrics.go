package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qm/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// HTTPMetrics records request counts, latency and in-flight requests
type HTTPMetrics struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
	inFlight *telemetry.Gauge
}

// NewHTTPMetrics registers the HTTP instruments on mp. A disabled provider
// yields no-op instruments.
func NewHTTPMetrics(mp *telemetry.MeterProvider) (*HTTPMetrics, error) {
	meter := mp.Meter("qm/http")
	requests, err := telemetry.NewCounter(meter, "qm.http.requests", "HTTP requests served", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "qm.http.request.duration",
		Description: "HTTP request latency",
		Unit:        "s",
		Buckets:     telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	inFlight, err := telemetry.NewGauge(meter, "qm.http.requests.in_flight", "HTTP requests being served", "{request}")
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{requests: requests, duration: duration, inFlight: inFlight}, nil
}

// Middleware returns the gin handler feeding the instruments. Unmatched
// routes are grouped under "unmatched" to bound cardinality.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		method := telemetry.AttrHTTPMethod.String(c.Request.Method)
		m.inFlight.Add(ctx, 1, method)
		start := time.Now()

		c.Next()

		m.inFlight.Add(ctx, -1, method)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []attribute.KeyValue{
			method,
			telemetry.AttrHTTPRoute.String(route),
			telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()),
		}
		m.requests.Inc(ctx, attrs...)
		m.duration.RecordDuration(ctx, time.Since(start), attrs...)
	}
}
