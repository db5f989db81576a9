package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/taxicast/taxicast/internal/api/middleware"
)

// recordSpans installs a recording tracer provider for the test and returns
// the recorder.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func onlySpan(t *testing.T, sr *tracetest.SpanRecorder) (sdktrace.ReadOnlySpan, map[attribute.Key]attribute.Value) {
	t.Helper()
	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return spans[0], attrs
}

func TestTracing_ServerSpan(t *testing.T) {
	sr := recordSpans(t)

	handler := middleware.Tracing("taxicast-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, trace.SpanFromContext(r.Context()).SpanContext().IsValid(), "handler sees the span")
		_, _ = w.Write([]byte(`[]`))
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=350+5th+Ave", http.NoBody)
	req.Header.Set("User-Agent", "taxicast-web/2.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	span, attrs := onlySpan(t, sr)
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, "GET /api/search", span.Name(), "outside chi the path names the span")
	assert.Equal(t, codes.Unset, span.Status().Code)

	assert.Equal(t, "GET", attrs["http.request.method"].AsString())
	assert.Equal(t, "http", attrs["url.scheme"].AsString())
	assert.Equal(t, "/api/search", attrs["url.path"].AsString())
	assert.Equal(t, "taxicast-web/2.1", attrs["user_agent.original"].AsString())
	assert.Equal(t, int64(200), attrs["http.response.status_code"].AsInt64())
	assert.Equal(t, int64(2), attrs["http.response.body.size"].AsInt64())

	for key, value := range attrs {
		assert.NotContains(t, value.Emit(), "5th", "attribute %s leaks the query", key)
	}
}

func TestTracing_ContinuesCallerTrace(t *testing.T) {
	sr := recordSpans(t)

	handler := middleware.Tracing("taxicast-test")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/ops/status", http.NoBody)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	span, _ := onlySpan(t, sr)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", span.SpanContext().TraceID().String())
	assert.Equal(t, "b7ad6b7169203331", span.Parent().SpanID().String())
	assert.True(t, span.Parent().IsRemote())
}

func TestTracing_StatusHandling(t *testing.T) {
	tests := []struct {
		status   int
		wantCode codes.Code
	}{
		{http.StatusBadRequest, codes.Unset},
		{http.StatusNotFound, codes.Unset},
		{http.StatusInternalServerError, codes.Error},
		{http.StatusBadGateway, codes.Error},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sr := recordSpans(t)
			handler := middleware.Tracing("taxicast-test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict-duration", http.NoBody))

			span, attrs := onlySpan(t, sr)
			assert.Equal(t, int64(tt.status), attrs["http.response.status_code"].AsInt64())
			assert.Equal(t, tt.wantCode, span.Status().Code)
			if tt.wantCode == codes.Error {
				assert.Equal(t, http.StatusText(tt.status), span.Status().Description)
			}
		})
	}
}

func TestTracing_IncludesRequestID(t *testing.T) {
	sr := recordSpans(t)

	handler := middleware.RequestID(middleware.Tracing("taxicast-test")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "req_abc123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, attrs := onlySpan(t, sr)
	assert.Equal(t, "req_abc123", attrs["request.id"].AsString())
}

func TestTracing_NamesSpanByRoutePattern(t *testing.T) {
	sr := recordSpans(t)

	r := chi.NewRouter()
	r.Use(middleware.Tracing("taxicast-test"))
	r.Get("/api/route", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/route?pickup_lat=40.7", http.NoBody))

	span, attrs := onlySpan(t, sr)
	assert.Equal(t, "GET /api/route", span.Name())
	assert.Equal(t, "/api/route", attrs["http.route"].AsString())
}

func TestTracing_HonoursForwardedProto(t *testing.T) {
	sr := recordSpans(t)

	handler := middleware.Tracing("taxicast-test")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "https")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, attrs := onlySpan(t, sr)
	assert.Equal(t, "https", attrs["url.scheme"].AsString())
}
