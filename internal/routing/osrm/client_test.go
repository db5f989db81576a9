package osrm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/provider/resilience"
	"github.com/taxicast/taxicast/internal/routing"
)

func directionsRequest() routing.DirectionsRequest {
	return routing.DirectionsRequest{
		Origin:      geo.Point{Lat: 40.7580, Lon: -73.9855},
		Destination: geo.Point{Lat: 40.6413, Lon: -73.7781},
		Profile:     routing.ProfileDriving,
	}
}

func TestClient_GetDirections_Success(t *testing.T) {
	body, err := os.ReadFile("testdata/route_response.json")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/route/v1/driving/-73.985500,40.758000;-73.778100,40.641300", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		assert.Equal(t, "polyline", r.URL.Query().Get("geometries"))
		assert.Equal(t, "taxicast-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := NewClient(ClientConfig{
		BaseURL:   server.URL + "/",
		UserAgent: "taxicast-test",
		Registry:  registry,
		Logger:    zerolog.Nop(),
	})

	route, err := client.GetDirections(context.Background(), directionsRequest())
	require.NoError(t, err)

	assert.Equal(t, ProviderName, route.Provider)
	assert.InDelta(t, 27431.2, route.DistanceMeters, 1e-9)
	assert.Equal(t, 27.43, route.DistanceKm())
	assert.Equal(t, 34, route.DurationMinutes())
	require.Len(t, route.Geometry, 3)
	assert.InDelta(t, 38.5, route.Geometry[0].Lat, 1e-6)
	assert.InDelta(t, -120.2, route.Geometry[0].Lon, 1e-6)

	health := registry.GetHealth(ProviderName)
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
}

func TestClient_GetDirections_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		code    string
	}{
		{
			name:    "no route",
			status:  http.StatusBadRequest,
			body:    `{"code":"NoRoute","message":"Impossible route between points"}`,
			wantErr: routing.ErrNoRouteFound,
			code:    "NoRoute",
		},
		{
			name:    "invalid query",
			status:  http.StatusBadRequest,
			body:    `{"code":"InvalidQuery","message":"Query string malformed close to position 12"}`,
			wantErr: routing.ErrNoRouteFound,
			code:    "InvalidQuery",
		},
		{
			name:    "point off the road network",
			status:  http.StatusBadRequest,
			body:    `{"code":"NoSegment","message":"Could not find a matching segment for coordinate 0"}`,
			wantErr: routing.ErrNoRouteFound,
			code:    "NoSegment",
		},
		{
			name:    "gateway error page",
			status:  http.StatusBadGateway,
			body:    `<html>502 Bad Gateway</html>`,
			wantErr: routing.ErrProviderUnavailable,
			code:    "HTTP_502",
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `Too Many Requests`,
			wantErr: routing.ErrRateLimitExceeded,
			code:    "RATE_LIMIT",
		},
		{
			name:    "ok status with empty routes",
			status:  http.StatusOK,
			body:    `{"code":"Ok","routes":[]}`,
			wantErr: routing.ErrNoRouteFound,
			code:    "NoRoute",
		},
		{
			name:    "unexpected code",
			status:  http.StatusOK,
			body:    `{"code":"Unknown","message":"something odd"}`,
			wantErr: routing.ErrProviderUnavailable,
			code:    "HTTP_200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(ClientConfig{
				BaseURL:    server.URL,
				HTTPClient: server.Client(),
				Logger:     zerolog.Nop(),
			})

			_, err := client.GetDirections(context.Background(), directionsRequest())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var routingErr *routing.Error
			require.True(t, errors.As(err, &routingErr))
			assert.Equal(t, tt.code, routingErr.Code)
			assert.Equal(t, ProviderName, routingErr.Provider)
		})
	}
}

func TestClient_GetDirections_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    url,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})

	_, err := client.GetDirections(context.Background(), directionsRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, routing.ErrProviderUnavailable))
}

func TestClient_GetDirections_MalformedGeometry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":1,"duration":1,"geometry":"_p~iF"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client(), Logger: zerolog.Nop()})

	_, err := client.GetDirections(context.Background(), directionsRequest())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "geometry"))
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "osrm", NewClient(ClientConfig{}).Name())
}
