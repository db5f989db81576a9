package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/ml"
	"github.com/taxicast/taxicast/internal/zone"
)

// Artifact file names inside the model directory.
const (
	DurationModelFile       = "duration_model.json"
	DurationFeaturesFile    = "duration_features.json"
	DestinationModelFile    = "destination_model.json"
	DestinationFeaturesFile = "destination_features.json"
	ZonePartitionFile       = "zone_partition.json"
	ZoneCentroidsFile       = "zone_centroids.json"
	ZoneMetadataFile        = "zone_metadata.json"
)

// LoadConfig configures Load.
type LoadConfig struct {
	// Dir is the directory holding the model artifacts.
	Dir string

	// ZoneSource provides zone metadata. Defaults to FileZoneSource on
	// Dir/zone_metadata.json, which falls back to the built-in table.
	ZoneSource ZoneSource

	Logger zerolog.Logger
}

// Load reads every artifact from cfg.Dir and returns a validated Registry.
// Any error is fatal for the caller: the service cannot serve without models.
func Load(ctx context.Context, cfg LoadConfig) (*Registry, error) {
	source := cfg.ZoneSource
	if source == nil {
		source = FileZoneSource{Path: filepath.Join(cfg.Dir, ZoneMetadataFile)}
	}

	var durationFeatures, destinationFeatures []string
	if err := readJSON(cfg.Dir, DurationFeaturesFile, &durationFeatures); err != nil {
		return nil, err
	}
	if err := readJSON(cfg.Dir, DestinationFeaturesFile, &destinationFeatures); err != nil {
		return nil, err
	}

	var durationSpec ml.EnsembleSpec
	if err := readJSON(cfg.Dir, DurationModelFile, &durationSpec); err != nil {
		return nil, err
	}
	regressor, err := ml.NewRegressor(durationSpec, durationFeatures)
	if err != nil {
		return nil, modelError(DurationModelFile, err)
	}

	var destinationSpec ml.EnsembleSpec
	if err := readJSON(cfg.Dir, DestinationModelFile, &destinationSpec); err != nil {
		return nil, err
	}
	classifier, err := ml.NewClassifier(destinationSpec, destinationFeatures)
	if err != nil {
		return nil, modelError(DestinationModelFile, err)
	}

	var partitionSpec ml.KMeansSpec
	if err := readJSON(cfg.Dir, ZonePartitionFile, &partitionSpec); err != nil {
		return nil, err
	}
	partition, err := ml.NewKMeans(partitionSpec)
	if err != nil {
		return nil, modelError(ZonePartitionFile, err)
	}

	var rawCentroids map[string][2]float64
	if err := readJSON(cfg.Dir, ZoneCentroidsFile, &rawCentroids); err != nil {
		return nil, err
	}
	centroids, err := parseCentroids(rawCentroids)
	if err != nil {
		return nil, err
	}

	infos, err := source.LoadZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading zone metadata: %w", err)
	}

	assigner, err := buildAssigner(partition, centroids, infos)
	if err != nil {
		return nil, err
	}

	reg, err := New(Config{
		DurationModel:       regressor,
		DurationFeatures:    durationFeatures,
		DestinationModel:    classifier,
		DestinationFeatures: destinationFeatures,
		DestinationClasses:  classifier.NumClass(),
		Zones:               assigner,
	})
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info().
		Str("dir", cfg.Dir).
		Int("zones", assigner.Count()).
		Int("duration_features", len(durationFeatures)).
		Int("destination_features", len(destinationFeatures)).
		Msg("model registry loaded")

	return reg, nil
}

func readJSON(dir, name string, v any) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// modelError marks shape problems inside an artifact as integrity violations.
func modelError(file string, err error) error {
	if errors.Is(err, ml.ErrInvalidModel) || errors.Is(err, ml.ErrUnknownFeature) {
		return fmt.Errorf("%w: %s: %w", ErrIntegrity, file, err)
	}
	return fmt.Errorf("%s: %w", file, err)
}

// parseCentroids converts the index-keyed centroid table into a dense slice.
func parseCentroids(raw map[string][2]float64) ([]geo.Point, error) {
	points := make([]geo.Point, len(raw))
	seen := make([]bool, len(raw))
	for key, pair := range raw {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || id >= len(raw) {
			return nil, fmt.Errorf("%w: centroid key %q is not a zone index in [0, %d)", ErrIntegrity, key, len(raw))
		}
		// Distinct string keys such as "1" and "01" can collide on the same index.
		if seen[id] {
			return nil, fmt.Errorf("%w: centroid index %d appears twice", ErrIntegrity, id)
		}
		seen[id] = true
		p := geo.Point{Lat: pair[0], Lon: pair[1]}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: centroid %d: %w", ErrIntegrity, id, err)
		}
		points[id] = p
	}
	return points, nil
}

// buildAssigner joins partition, centroids and metadata, requiring all three to cover exactly 0..N-1.
func buildAssigner(partition *ml.KMeans, centroids []geo.Point, infos []ZoneInfo) (*zone.Assigner, error) {
	n := partition.NumClusters()
	if len(centroids) != n {
		return nil, fmt.Errorf("%w: partition has %d zones but centroid table has %d", ErrIntegrity, n, len(centroids))
	}
	if len(infos) != n {
		return nil, fmt.Errorf("%w: partition has %d zones but metadata has %d records", ErrIntegrity, n, len(infos))
	}

	zones := make([]zone.Zone, 0, n)
	for _, info := range infos {
		if info.ID < 0 || info.ID >= n {
			return nil, fmt.Errorf("%w: metadata record for zone %d outside [0, %d)", ErrIntegrity, info.ID, n)
		}
		zones = append(zones, zone.Zone{
			ID:          info.ID,
			Center:      centroids[info.ID],
			Name:        info.Name,
			Type:        info.Type,
			Color:       info.Color,
			Description: info.Description,
		})
	}

	table, err := zone.NewTable(zones)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	assigner, err := zone.NewAssigner(partition, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	return assigner, nil
}
