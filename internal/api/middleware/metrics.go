package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const meterName = "github.com/taxicast/taxicast/internal/api/middleware"

// Instrument names exported by Metrics.
const (
	MetricRequestDuration = "http.server.request.duration"
	MetricRequests        = "http.server.requests"
	MetricActiveRequests  = "http.server.active_requests"
	MetricResponseSize    = "http.server.response.body.size"
)

// Metrics records per-route HTTP server instruments.
type Metrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	active   metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewMetrics registers the instruments on the global meter provider, so
// telemetry.Init must run first for them to be exported.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.duration, err = meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Time to serve a request"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.requests, err = meter.Int64Counter(MetricRequests,
		metric.WithDescription("Requests served, by route and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.active, err = meter.Int64UpDownCounter(MetricActiveRequests,
		metric.WithDescription("Requests currently in progress"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.size, err = meter.Int64Histogram(MetricResponseSize,
		metric.WithDescription("Response body bytes written"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware records the instruments for each request. The route attribute
// is the chi pattern, never the raw path, to keep cardinality bounded.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			// The route is only resolved after routing, so active requests carry the method alone.
			method := semconv.HTTPRequestMethodKey.String(r.Method)
			m.active.Add(ctx, 1, metric.WithAttributes(method))
			defer m.active.Add(ctx, -1, metric.WithAttributes(method))

			ww := wrap(w, r)
			next.ServeHTTP(ww, r)

			status := statusOf(ww)
			set := attribute.NewSet(
				method,
				semconv.HTTPRoute(routePattern(r)),
				semconv.HTTPResponseStatusCode(status),
				attribute.Bool("error", status >= http.StatusBadRequest),
			)
			opt := metric.WithAttributeSet(set)

			m.duration.Record(ctx, time.Since(start).Seconds(), opt)
			m.requests.Add(ctx, 1, opt)
			m.size.Record(ctx, int64(ww.BytesWritten()), opt)
		})
	}
}
