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
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/taxicast/taxicast/internal/api/middleware"
)

// collectMetrics installs a manual reader as the global meter provider for the
// duration of the test.
func collectMetrics(t *testing.T) func() metricdata.ResourceMetrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		_ = mp.Shutdown(context.Background())
	})

	return func() metricdata.ResourceMetrics {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		return rm
	}
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestMetrics_Middleware_StatusAttributes(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		method    string
		wantCode  int64
		wantError bool
		wantBytes int64
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("OK"))
			},
			method:   http.MethodGet,
			wantCode: http.StatusOK, wantBytes: 2,
		},
		{
			name: "implicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("[]"))
			},
			method:   http.MethodGet,
			wantCode: http.StatusOK, wantBytes: 2,
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"status":"error"}`))
			},
			method:   http.MethodPost,
			wantCode: http.StatusBadRequest, wantError: true, wantBytes: 18,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			method:   http.MethodPost,
			wantCode: http.StatusInternalServerError, wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collect := collectMetrics(t)
			metrics, err := middleware.NewMetrics()
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			metrics.Middleware()(tt.handler).ServeHTTP(rec, httptest.NewRequest(tt.method, "/predict-duration", http.NoBody))
			assert.Equal(t, int(tt.wantCode), rec.Code)

			rm := collect()
			m, ok := findMetric(rm, middleware.MetricRequests)
			require.True(t, ok)
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)

			dp := sum.DataPoints[0]
			assert.Equal(t, int64(1), dp.Value)
			code, _ := dp.Attributes.Value("http.response.status_code")
			assert.Equal(t, tt.wantCode, code.AsInt64())
			method, _ := dp.Attributes.Value("http.request.method")
			assert.Equal(t, tt.method, method.AsString())
			isErr, _ := dp.Attributes.Value("error")
			assert.Equal(t, tt.wantError, isErr.AsBool())

			size, ok := findMetric(rm, middleware.MetricResponseSize)
			require.True(t, ok)
			hist, ok := size.Data.(metricdata.Histogram[int64])
			require.True(t, ok)
			require.Len(t, hist.DataPoints, 1)
			assert.Equal(t, tt.wantBytes, hist.DataPoints[0].Sum)
		})
	}
}

func TestMetrics_Middleware_ActiveRequestsSettle(t *testing.T) {
	collect := collectMetrics(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	var during int64
	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, ok := findMetric(collect(), middleware.MetricActiveRequests)
		require.True(t, ok)
		during = m.Data.(metricdata.Sum[int64]).DataPoints[0].Value
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	m, ok := findMetric(collect(), middleware.MetricActiveRequests)
	require.True(t, ok)
	assert.Equal(t, int64(1), during)
	assert.Equal(t, int64(0), m.Data.(metricdata.Sum[int64]).DataPoints[0].Value)
}

func TestMetrics_Middleware_RecordsRoutePattern(t *testing.T) {
	collect := collectMetrics(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/api/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/api/search?q=soho", "/api/search?q=harlem", "/wp-login.php"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	m, ok := findMetric(collect(), middleware.MetricRequests)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	routes := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value("http.route")
		routes[route.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"/api/search": 2, "unmatched": 1}, routes)
}
