package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/prediction"
	"github.com/taxicast/taxicast/internal/provider/resilience"
	"github.com/taxicast/taxicast/internal/routing"
	"github.com/taxicast/taxicast/internal/zone"
	"github.com/taxicast/taxicast/pkg/polyline"
)

func TestErrorResponse_Write(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewError("req_test123", "invalid datetime").Write(w, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "invalid datetime", body["message"])
	assert.Equal(t, "req_test123", body["request_id"])
}

func TestErrorResponse_WriteWithoutRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewError("", "boom").Write(w, http.StatusInternalServerError)

	assert.Empty(t, w.Header().Get("X-Request-Id"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	_, ok := body["request_id"]
	assert.False(t, ok)
}

func TestNewDurationResponse(t *testing.T) {
	res := &prediction.DurationResult{
		Minutes:    59,
		DistanceKm: 21.77,
		Bearing:    128.4,
		Pickup:     zone.Zone{ID: 0, Name: "Times Square Area", Color: "#e6194b"},
		Dropoff:    zone.Zone{ID: 7, Name: "JFK Airport", Color: "#911eb4"},
		PickupAt:   geo.Point{Lat: 40.758, Lon: -73.9855},
		DropoffAt:  geo.Point{Lat: 40.6413, Lon: -73.7781},
		Time: prediction.TimeSummary{
			Hour: 8, Month: 6, Weekday: "Saturday", IsRushHour: true, IsWeekend: true,
		},
	}

	data, err := json.Marshal(models.NewDurationResponse(res))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 59, body["duration_minutes"])
	assert.EqualValues(t, 7, body["dropoff_cluster"])
	assert.Equal(t, "JFK Airport", body["dropoff_cluster_name"])
	assert.Equal(t, []any{40.758, -73.9855}, body["pickup_coords"])

	timeInfo := body["time_info"].(map[string]any)
	assert.Equal(t, "Saturday", timeInfo["day"])
	assert.Equal(t, true, timeInfo["is_weekend"])
	assert.EqualValues(t, 6, timeInfo["month"])
}

func TestNewDestinationResponse(t *testing.T) {
	jfk := zone.Zone{
		ID:          7,
		Center:      geo.Point{Lat: 40.6413, Lon: -73.7781},
		Name:        "JFK Airport",
		Type:        "Transportation",
		Color:       "#911eb4",
		Description: "Airport",
	}
	res := &prediction.DestinationResult{
		Pickup:     zone.Zone{ID: 1, Name: "Financial District"},
		PickupAt:   geo.Point{Lat: 40.7075, Lon: -74.0113},
		Time:       prediction.TimeSummary{Hour: 2, Month: 6, Weekday: "Sunday", IsWeekend: true},
		Candidates: []prediction.Candidate{{Zone: jfk, Probability: 30.8, Confidence: "Low"}},
		TotalZones: 15,
	}

	resp := models.NewDestinationResponse(res)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, resp.PickupCluster)
	assert.Equal(t, "Sunday", resp.DayOfWeek)
	assert.Equal(t, 15, resp.TotalClusters)
	require.Len(t, resp.TopPredictions, 1)
	assert.Equal(t, models.DestinationPrediction{
		Cluster:     7,
		Name:        "JFK Airport",
		Type:        "Transportation",
		Color:       "#911eb4",
		Probability: 30.8,
		Confidence:  "Low",
		Center:      models.LatLon{40.6413, -73.7781},
		Description: "Airport",
	}, resp.TopPredictions[0])

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "fallback")
}

func TestNewRouteResponse_Degraded(t *testing.T) {
	resp := models.NewRouteResponse(&routing.Route{Degraded: true})

	assert.Equal(t, "success", resp.Status)
	assert.NotNil(t, resp.Geometry)
	assert.Empty(t, resp.Geometry)
	assert.Zero(t, resp.DistanceKm)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"geometry":[]`)
}

func TestNewRouteResponse(t *testing.T) {
	resp := models.NewRouteResponse(&routing.Route{
		DistanceMeters:  21770,
		DurationSeconds: 2400,
		Geometry:        []polyline.Coordinate{{Lat: 40.758, Lon: -73.9855}, {Lat: 40.6413, Lon: -73.7781}},
		Provider:        "osrm",
	})

	assert.Equal(t, 21.77, resp.DistanceKm)
	assert.Equal(t, 40, resp.DurationMinutes)
	assert.Equal(t, []models.LatLon{{40.758, -73.9855}, {40.6413, -73.7781}}, resp.Geometry)
}

func TestNewSystemStatus(t *testing.T) {
	now := time.Now()
	health := []*resilience.ProviderHealth{
		{Name: "nominatim", CircuitState: gobreaker.StateClosed, LastSuccessAt: &now},
		{Name: "osrm", CircuitState: gobreaker.StateOpen, LastFailureAt: &now, LastError: "timeout", OpenedAt: &now, Trips: 2},
	}

	status := models.NewSystemStatus(models.Timestamp(now), health)

	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	require.Len(t, status.Providers, 2)
	assert.Equal(t, models.HealthStatusOK, status.Providers[0].Status)
	assert.NotNil(t, status.Providers[0].LastSuccessAt)
	assert.Equal(t, models.HealthStatusFail, status.Providers[1].Status)
	assert.Equal(t, "open", status.Providers[1].CircuitState)
	require.NotNil(t, status.Providers[1].Message)
	assert.Equal(t, "timeout", *status.Providers[1].Message)
	assert.Equal(t, 2, status.Providers[1].Trips)
	assert.NotNil(t, status.Providers[1].OpenedAt)
	assert.Nil(t, status.Providers[0].OpenedAt)
}

func TestNewSystemStatus_NoProviders(t *testing.T) {
	status := models.NewSystemStatus(models.Timestamp(time.Now()), nil)
	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.NotNil(t, status.Providers)
}

func TestTimestamp_JSON(t *testing.T) {
	loc := time.FixedZone("EDT", -4*60*60)
	ts := models.Timestamp(time.Date(2024, 6, 15, 10, 30, 45, 500, loc))

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-15T14:30:45Z"`, string(b))

	var back models.Timestamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Time().Equal(time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)))

	var untouched models.Timestamp
	require.NoError(t, json.Unmarshal([]byte("null"), &untouched))
	assert.True(t, untouched.Time().IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"2024-06-15 14:30"`), &back))
	assert.Error(t, json.Unmarshal([]byte(`42`), &back))
}

func TestTimestampOf(t *testing.T) {
	assert.Nil(t, models.TimestampOf(nil))

	now := time.Now()
	ts := models.TimestampOf(&now)
	require.NotNil(t, ts)
	assert.True(t, ts.Time().Equal(now))
}
