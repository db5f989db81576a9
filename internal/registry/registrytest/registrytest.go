// Package registrytest writes small but complete model artifact sets for tests.
package registrytest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/taxicast/taxicast/internal/ml"
	"github.com/taxicast/taxicast/internal/registry"
)

// Zone ids of the built-in table that the fixture models favour.
const (
	TimesSquare       = 0
	FinancialDistrict = 1
	Williamsburg      = 4
	JFKAirport        = 7
	LaGuardiaAirport  = 8
)

// DurationFeatures is the declared order of the fixture regressor.
var DurationFeatures = []string{
	"distance_km", "pickup_longitude", "pickup_latitude", "dropoff_longitude", "dropoff_latitude",
	"bearing", "manhattan_distance", "log_distance", "hour", "month", "is_weekend", "is_rush_hour",
	"passenger_count", "pickup_cluster", "dropoff_cluster", "day_of_week_idx",
	"hour_sin", "hour_cos", "month_sin", "month_cos",
}

// DestinationFeatures is the declared order of the fixture classifier.
var DestinationFeatures = []string{
	"pickup_longitude", "pickup_latitude", "hour", "month", "is_weekend", "is_rush_hour",
	"passenger_count", "pickup_cluster", "day_of_week_idx",
	"hour_sin", "hour_cos", "month_sin", "month_cos",
}

// Options adjusts the written artifacts.
type Options struct {
	// DestinationObjective defaults to multi:softprob.
	DestinationObjective string
	// DurationFeatures must still contain distance_km and is_rush_hour.
	DurationFeatures []string
	// DestinationFeatures must still contain is_rush_hour and is_weekend.
	DestinationFeatures []string
}

// Write stores a full artifact set for the 15 built-in zones in dir.
//
// The regressor returns log1p minutes of roughly 11, 24 or 48 depending on
// distance, plus a rush hour bump. The classifier favours JFK, then ties
// Times Square with LaGuardia, and boosts Williamsburg on weekends.
func Write(t testing.TB, dir string, opts Options) {
	t.Helper()

	durationFeatures := opts.DurationFeatures
	if durationFeatures == nil {
		durationFeatures = DurationFeatures
	}
	destinationFeatures := opts.DestinationFeatures
	if destinationFeatures == nil {
		destinationFeatures = DestinationFeatures
	}
	objective := opts.DestinationObjective
	if objective == "" {
		objective = ml.ObjectiveSoftProb
	}

	WriteJSON(t, dir, registry.DurationFeaturesFile, durationFeatures)
	WriteJSON(t, dir, registry.DestinationFeaturesFile, destinationFeatures)
	WriteJSON(t, dir, registry.DurationModelFile, durationSpec())
	WriteJSON(t, dir, registry.DestinationModelFile, destinationSpec(objective))

	centers := make([][]float64, len(registry.BuiltinZoneCentroids))
	centroids := make(map[string][2]float64, len(registry.BuiltinZoneCentroids))
	for i, c := range registry.BuiltinZoneCentroids {
		centers[i] = []float64{c[0], c[1]}
		centroids[strconv.Itoa(i)] = c
	}
	WriteJSON(t, dir, registry.ZonePartitionFile, ml.KMeansSpec{
		NClusters:      len(centers),
		ClusterCenters: centers,
	})
	WriteJSON(t, dir, registry.ZoneCentroidsFile, centroids)
}

// Load writes a fixture into a temporary directory and loads it.
func Load(t testing.TB, opts Options) *registry.Registry {
	t.Helper()

	dir := t.TempDir()
	Write(t, dir, opts)
	reg, err := registry.Load(context.Background(), registry.LoadConfig{
		Dir:    dir,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return reg
}

// WriteJSON marshals v into dir/name.
func WriteJSON(t testing.TB, dir, name string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func durationSpec() ml.EnsembleSpec {
	return ml.EnsembleSpec{
		Objective: ml.ObjectiveSquaredError,
		Trees: []ml.Node{
			{
				NodeID: 0, Split: "distance_km", SplitCondition: 5, Yes: 1, No: 2, Missing: 1,
				Children: []ml.Node{
					leaf(1, 2.5),
					{
						NodeID: 2, Split: "distance_km", SplitCondition: 15, Yes: 3, No: 4, Missing: 3,
						Children: []ml.Node{leaf(3, 3.2), leaf(4, 3.9)},
					},
				},
			},
			split(0, "is_rush_hour", 0.5, 0, 0.2),
		},
	}
}

func destinationSpec(objective string) ml.EnsembleSpec {
	n := len(registry.BuiltinZoneCentroids)
	trees := make([]ml.Node, n)
	for class := range trees {
		switch class {
		case JFKAirport:
			trees[class] = split(0, "is_rush_hour", 0.5, 2.5, 3.0)
		case TimesSquare, LaGuardiaAirport:
			trees[class] = leaf(0, 1.5)
		case Williamsburg:
			trees[class] = split(0, "is_weekend", 0.5, 0, 2.0)
		default:
			trees[class] = leaf(0, 0)
		}
	}
	return ml.EnsembleSpec{
		Objective: objective,
		NumClass:  n,
		Trees:     trees,
	}
}

func leaf(id int, v float64) ml.Node {
	return ml.Node{NodeID: id, Leaf: &v}
}

// split sends values below threshold to the yes leaf.
func split(id int, feature string, threshold, yes, no float64) ml.Node {
	return ml.Node{
		NodeID:         id,
		Split:          feature,
		SplitCondition: threshold,
		Yes:            id + 1,
		No:             id + 2,
		Missing:        id + 1,
		Children:       []ml.Node{leaf(id+1, yes), leaf(id+2, no)},
	}
}
