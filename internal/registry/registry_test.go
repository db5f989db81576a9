package registry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/ml"
	"github.com/taxicast/taxicast/internal/registry"
	"github.com/taxicast/taxicast/internal/registry/registrytest"
)

func load(dir string) (*registry.Registry, error) {
	return registry.Load(context.Background(), registry.LoadConfig{Dir: dir, Logger: zerolog.Nop()})
}

func TestLoad_Fixture(t *testing.T) {
	reg := registrytest.Load(t, registrytest.Options{})

	summary := reg.Summary()
	assert.Equal(t, 15, summary.ZoneCount)
	assert.Equal(t, registrytest.DurationFeatures, summary.DurationFeatures)
	assert.Equal(t, registrytest.DestinationFeatures, summary.DestinationFeatures)

	z, err := reg.Zones().Assign(geo.Point{Lat: 40.6413, Lon: -73.7781})
	require.NoError(t, err)
	assert.Equal(t, registrytest.JFKAirport, z.ID)
	assert.Equal(t, "JFK Airport", z.Name)
	assert.NotEmpty(t, z.Color)
}

func TestLoad_FeatureListsAreCopies(t *testing.T) {
	reg := registrytest.Load(t, registrytest.Options{})

	features := reg.DurationFeatures()
	features[0] = "mutated"
	assert.Equal(t, "distance_km", reg.DurationFeatures()[0])
}

func TestLoad_MissingArtifact(t *testing.T) {
	for _, name := range []string{
		registry.DurationModelFile,
		registry.DurationFeaturesFile,
		registry.DestinationModelFile,
		registry.DestinationFeaturesFile,
		registry.ZonePartitionFile,
		registry.ZoneCentroidsFile,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			registrytest.Write(t, dir, registrytest.Options{})
			require.NoError(t, os.Remove(filepath.Join(dir, name)))

			_, err := load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_IntegrityViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string)
	}{
		{
			name: "classifier width differs from zone count",
			mutate: func(t *testing.T, dir string) {
				leaf := 0.0
				registrytest.WriteJSON(t, dir, registry.DestinationModelFile, ml.EnsembleSpec{
					Objective: ml.ObjectiveSoftProb,
					NumClass:  2,
					Trees:     []ml.Node{{Leaf: &leaf}, {Leaf: &leaf}},
				})
			},
		},
		{
			name: "centroid table shorter than partition",
			mutate: func(t *testing.T, dir string) {
				registrytest.WriteJSON(t, dir, registry.ZoneCentroidsFile, map[string][2]float64{
					"0": {40.7580, -73.9855},
				})
			},
		},
		{
			name: "centroid key outside range",
			mutate: func(t *testing.T, dir string) {
				centroids := make(map[string][2]float64)
				for i := 1; i <= 15; i++ {
					centroids[string(rune('a'+i))] = [2]float64{40.7, -73.9}
				}
				registrytest.WriteJSON(t, dir, registry.ZoneCentroidsFile, centroids)
			},
		},
		{
			name: "metadata count differs from partition",
			mutate: func(t *testing.T, dir string) {
				registrytest.WriteJSON(t, dir, registry.ZoneMetadataFile, []registry.ZoneInfo{
					{ID: 0, Name: "Only"},
				})
			},
		},
		{
			name: "tree splits on undeclared feature",
			mutate: func(t *testing.T, dir string) {
				registrytest.WriteJSON(t, dir, registry.DurationFeaturesFile, []string{"hour", "month"})
			},
		},
		{
			name: "duplicate declared feature",
			mutate: func(t *testing.T, dir string) {
				registrytest.WriteJSON(t, dir, registry.DestinationFeaturesFile, []string{"hour", "hour"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			registrytest.Write(t, dir, registrytest.Options{})
			tt.mutate(t, dir)

			_, err := load(dir)
			require.Error(t, err)
			assert.True(t, errors.Is(err, registry.ErrIntegrity), "got %v", err)
		})
	}
}

func TestLoad_ZoneMetadataFileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	registrytest.Write(t, dir, registrytest.Options{})

	infos, err := registry.BuiltinZoneSource{}.LoadZones(context.Background())
	require.NoError(t, err)
	infos[7].Name = "Kennedy"
	registrytest.WriteJSON(t, dir, registry.ZoneMetadataFile, infos)

	reg, err := load(dir)
	require.NoError(t, err)

	z, err := reg.Zones().Lookup(registrytest.JFKAirport)
	require.NoError(t, err)
	assert.Equal(t, "Kennedy", z.Name)
}

type staticSource struct {
	zones []registry.ZoneInfo
	err   error
}

func (s staticSource) LoadZones(_ context.Context) ([]registry.ZoneInfo, error) {
	return s.zones, s.err
}

func TestLoad_ZoneSourceError(t *testing.T) {
	dir := t.TempDir()
	registrytest.Write(t, dir, registrytest.Options{})

	_, err := registry.Load(context.Background(), registry.LoadConfig{
		Dir:        dir,
		ZoneSource: staticSource{err: errors.New("connection refused")},
		Logger:     zerolog.Nop(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBuiltinZoneSource_MatchesCentroids(t *testing.T) {
	infos, err := registry.BuiltinZoneSource{}.LoadZones(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, len(registry.BuiltinZoneCentroids))
	for i, info := range infos {
		assert.Equal(t, i, info.ID)
		assert.NotEmpty(t, info.Name)
	}
}

func TestNew_RequiresParts(t *testing.T) {
	_, err := registry.New(registry.Config{})
	assert.True(t, errors.Is(err, registry.ErrIntegrity))
}
