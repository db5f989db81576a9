package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/registry"
	"github.com/taxicast/taxicast/internal/registry/registrytest"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func modelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	registrytest.Write(t, dir, registrytest.Options{})
	return dir
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", "--models", modelDir(t))
	require.NoError(t, err)

	var summary registry.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 15, summary.ZoneCount)
	assert.Equal(t, registrytest.DurationFeatures, summary.DurationFeatures)
	assert.Equal(t, registrytest.DestinationFeatures, summary.DestinationFeatures)
}

func TestValidate_BrokenDirectory(t *testing.T) {
	dir := modelDir(t)
	registrytest.WriteJSON(t, dir, registry.ZoneCentroidsFile, map[string][2]float64{"0": {40.7, -73.9}})

	_, errOut, err := run(t, "validate", "-m", dir)

	require.Error(t, err)
	assert.Contains(t, errOut, "Error:")
}

func TestPredictDuration(t *testing.T) {
	out, _, err := run(t, "predict", "duration",
		"--models", modelDir(t),
		"--pickup", "40.7580,-73.9855",
		"--dropoff", "40.6413, -73.7781",
		"--at", "2024-06-15T08:30",
	)
	require.NoError(t, err)

	var resp models.DurationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 59, resp.DurationMinutes)
	assert.Equal(t, "JFK Airport", resp.DropoffClusterName)
	assert.True(t, resp.TimeInfo.IsWeekend)
}

func TestPredictDuration_RequiresDropoff(t *testing.T) {
	_, _, err := run(t, "predict", "duration",
		"--models", modelDir(t),
		"--pickup", "40.7580,-73.9855",
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"dropoff"`)
}

func TestPredictDestination(t *testing.T) {
	out, _, err := run(t, "predict", "destination",
		"--models", modelDir(t),
		"--pickup", "40.7075,-74.0113",
		"--at", "2024-06-16T02:00",
	)
	require.NoError(t, err)

	var resp models.DestinationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Financial District", resp.PickupClusterName)
	require.Len(t, resp.TopPredictions, 3)
	assert.Equal(t, registrytest.JFKAirport, resp.TopPredictions[0].Cluster)
}

func TestPredict_InvalidInput(t *testing.T) {
	_, _, err := run(t, "predict", "destination",
		"--models", modelDir(t),
		"--pickup", "40.7075,-74.0113",
		"--at", "15/06/2024",
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "datetime")
}

func TestParseLatLon(t *testing.T) {
	tests := []struct {
		raw     string
		lat     float64
		lon     float64
		wantErr string
	}{
		{raw: "40.758,-73.9855", lat: 40.758, lon: -73.9855},
		{raw: " 40.758 , -73.9855 ", lat: 40.758, lon: -73.9855},
		{raw: "40.758", wantErr: "must be LAT,LON"},
		{raw: "40.758,-73.9,1", wantErr: "must be LAT,LON"},
		{raw: "north,-73.9", wantErr: "latitude"},
		{raw: "40.7,west", wantErr: "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			lat, lon, err := parseLatLon("pickup", tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, lat)
			assert.Equal(t, tt.lon, lon)
		})
	}
}
