// Package registry holds the pretrained models the prediction pipeline runs on.
// A Registry is built once at startup, validated exhaustively, and read-only afterwards,
// so it is safe to share between request goroutines without locking.
package registry

import (
	"errors"
	"fmt"

	"github.com/taxicast/taxicast/internal/zone"
)

// ErrIntegrity indicates artifacts that are individually readable but inconsistent
// with each other. The process must refuse to start on this error.
var ErrIntegrity = errors.New("registry integrity violation")

// DurationModel predicts log1p(trip minutes) from an ordered feature row.
type DurationModel interface {
	Predict(x []float64) (float64, error)
}

// DestinationModel predicts the destination zone from an ordered feature row.
type DestinationModel interface {
	// PredictProba returns one probability per zone id.
	PredictProba(x []float64) ([]float64, error)
	// Predict returns the single most likely zone id.
	Predict(x []float64) (int, error)
}

// Config carries the already-constructed parts of a Registry.
type Config struct {
	DurationModel       DurationModel
	DurationFeatures    []string
	DestinationModel    DestinationModel
	DestinationFeatures []string

	// DestinationClasses is the classifier's output width.
	DestinationClasses int
	Zones              *zone.Assigner
}

// Registry is the immutable set of models and zone metadata.
type Registry struct {
	durationModel       DurationModel
	durationFeatures    []string
	destinationModel    DestinationModel
	destinationFeatures []string
	zones               *zone.Assigner
}

// New validates cfg and returns a Registry.
func New(cfg Config) (*Registry, error) {
	if cfg.DurationModel == nil || cfg.DestinationModel == nil || cfg.Zones == nil {
		return nil, fmt.Errorf("%w: duration model, destination model and zones are all required", ErrIntegrity)
	}
	if err := checkFeatureList("duration", cfg.DurationFeatures); err != nil {
		return nil, err
	}
	if err := checkFeatureList("destination", cfg.DestinationFeatures); err != nil {
		return nil, err
	}
	if cfg.DestinationClasses != cfg.Zones.Count() {
		return nil, fmt.Errorf("%w: destination classifier has %d classes but there are %d zones",
			ErrIntegrity, cfg.DestinationClasses, cfg.Zones.Count())
	}

	return &Registry{
		durationModel:       cfg.DurationModel,
		durationFeatures:    append([]string(nil), cfg.DurationFeatures...),
		destinationModel:    cfg.DestinationModel,
		destinationFeatures: append([]string(nil), cfg.DestinationFeatures...),
		zones:               cfg.Zones,
	}, nil
}

func checkFeatureList(model string, features []string) error {
	if len(features) == 0 {
		return fmt.Errorf("%w: %s feature list is empty", ErrIntegrity, model)
	}
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if f == "" {
			return fmt.Errorf("%w: %s feature list contains an empty name", ErrIntegrity, model)
		}
		if seen[f] {
			return fmt.Errorf("%w: %s feature list declares %q twice", ErrIntegrity, model, f)
		}
		seen[f] = true
	}
	return nil
}

// DurationModel returns the duration regressor.
func (r *Registry) DurationModel() DurationModel {
	return r.durationModel
}

// DurationFeatures returns a copy of the regressor's declared feature order.
func (r *Registry) DurationFeatures() []string {
	return append([]string(nil), r.durationFeatures...)
}

// DestinationModel returns the destination classifier.
func (r *Registry) DestinationModel() DestinationModel {
	return r.destinationModel
}

// DestinationFeatures returns a copy of the classifier's declared feature order.
func (r *Registry) DestinationFeatures() []string {
	return append([]string(nil), r.destinationFeatures...)
}

// Zones returns the zone assigner.
func (r *Registry) Zones() *zone.Assigner {
	return r.zones
}

// Summary describes what is loaded.
type Summary struct {
	ZoneCount           int      `json:"zone_count"`
	DurationFeatures    []string `json:"duration_features"`
	DestinationFeatures []string `json:"destination_features"`
}

// Summary returns a description of the loaded registry.
func (r *Registry) Summary() Summary {
	return Summary{
		ZoneCount:           r.zones.Count(),
		DurationFeatures:    r.DurationFeatures(),
		DestinationFeatures: r.DestinationFeatures(),
	}
}
