// Package prediction runs the duration and destination inference pipelines
// against a loaded model registry.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/taxicast/taxicast/internal/features"
	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/registry"
	"github.com/taxicast/taxicast/internal/zone"
)

const instrumentationName = "github.com/taxicast/taxicast/internal/prediction"

// ServiceConfig holds configuration for the prediction service.
type ServiceConfig struct {
	// Registry is the loaded, validated model registry.
	Registry *registry.Registry

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service runs inference. It holds no mutable state and is safe for concurrent use.
type Service struct {
	registry *registry.Registry
	builder  *features.Builder
	logger   zerolog.Logger
	tracer   trace.Tracer

	requests  metric.Int64Counter
	fallbacks metric.Int64Counter
}

// NewService creates a new prediction service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, errors.New("prediction: registry is required")
	}

	meter := otel.Meter(instrumentationName)

	requests, err := meter.Int64Counter(
		"prediction.requests",
		metric.WithDescription("Prediction requests by target and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"prediction.fallback",
		metric.WithDescription("Destination predictions answered without class probabilities"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		registry:  cfg.Registry,
		builder:   features.NewBuilder(cfg.Registry),
		logger:    cfg.Logger,
		tracer:    otel.Tracer(instrumentationName),
		requests:  requests,
		fallbacks: fallbacks,
	}, nil
}

// Zones returns every zone in id order.
func (s *Service) Zones() []zone.Zone {
	return s.registry.Zones().Zones()
}

// Summary describes the loaded registry.
func (s *Service) Summary() registry.Summary {
	return s.registry.Summary()
}

// PredictDuration predicts the trip duration in whole minutes.
func (s *Service) PredictDuration(ctx context.Context, req Request) (result *DurationResult, err error) {
	ctx, span := s.tracer.Start(ctx, "prediction.duration")
	defer func() { s.finish(ctx, span, features.Duration, err) }()

	trip, err := req.Trip(features.Duration)
	if err != nil {
		return nil, err
	}

	vec, d, err := s.build(features.Duration, trip)
	if err != nil {
		return nil, err
	}

	raw, err := s.registry.DurationModel().Predict(vec.Values)
	if err != nil {
		return nil, unavailable("duration model failed", err)
	}

	minutes := math.Expm1(raw)
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return nil, unavailable("duration model failed", fmt.Errorf("non-finite output %v", raw))
	}
	rounded := int(math.Round(minutes))
	if rounded < 1 {
		rounded = 1
	}

	span.SetAttributes(
		attribute.Int("prediction.pickup_zone", d.PickupZone.ID),
		attribute.Int("prediction.dropoff_zone", d.DropoffZone.ID),
		attribute.Int("prediction.minutes", rounded),
	)

	return &DurationResult{
		Minutes:    rounded,
		DistanceKm: round2(d.DistanceKm),
		Bearing:    math.Round(d.Bearing*10) / 10,
		Pickup:     d.PickupZone,
		Dropoff:    d.DropoffZone,
		PickupAt:   trip.Pickup,
		DropoffAt:  *trip.Dropoff,
		Time:       summarize(d.Time),
	}, nil
}

// PredictDestination ranks the most likely destination zones.
//
// When the classifier cannot produce probabilities, or produces an all-zero
// vector, the result holds the single predicted class with a fixed
// probability and Fallback set. Validation failures are never recovered.
func (s *Service) PredictDestination(ctx context.Context, req Request) (result *DestinationResult, err error) {
	ctx, span := s.tracer.Start(ctx, "prediction.destination")
	defer func() { s.finish(ctx, span, features.Destination, err) }()

	trip, err := req.Trip(features.Destination)
	if err != nil {
		return nil, err
	}

	vec, d, err := s.build(features.Destination, trip)
	if err != nil {
		return nil, err
	}

	result = &DestinationResult{
		Pickup:     d.PickupZone,
		PickupAt:   trip.Pickup,
		Time:       summarize(d.Time),
		TotalZones: s.registry.Zones().Count(),
	}

	model := s.registry.DestinationModel()
	probs, probErr := model.PredictProba(vec.Values)
	if probErr == nil && degenerate(probs) {
		probErr = errors.New("degenerate probability vector")
	}

	if probErr != nil {
		candidate, err := s.fallback(ctx, vec, probErr)
		if err != nil {
			return nil, err
		}
		result.Candidates = []Candidate{candidate}
		result.Fallback = true
		span.SetAttributes(attribute.Bool("prediction.fallback", true))
		return result, nil
	}

	if len(probs) != result.TotalZones {
		return nil, integrity("destination model width does not match zone count",
			fmt.Errorf("%d probabilities for %d zones", len(probs), result.TotalZones))
	}

	ids := topK(probs, TopK)
	pcts := percentages(probs, ids)
	for i, id := range ids {
		z, err := s.registry.Zones().Lookup(id)
		if err != nil {
			return nil, integrity("destination model produced an unknown zone", err)
		}
		result.Candidates = append(result.Candidates, Candidate{
			Zone:        z,
			Probability: pcts[i],
			Confidence:  ConfidenceLabel(probs[id]),
		})
	}

	span.SetAttributes(attribute.Int("prediction.top_zone", result.Candidates[0].Zone.ID))
	return result, nil
}

// fallback answers with the single predicted class when probabilities are unavailable.
func (s *Service) fallback(ctx context.Context, vec features.Vector, cause error) (Candidate, error) {
	s.logger.Warn().Err(cause).Msg("destination probabilities unavailable, using predicted class")
	s.fallbacks.Add(ctx, 1)

	id, err := s.registry.DestinationModel().Predict(vec.Values)
	if err != nil {
		return Candidate{}, unavailable("destination model failed", err)
	}
	z, err := s.registry.Zones().Lookup(id)
	if err != nil {
		return Candidate{}, integrity("destination model produced an unknown zone", err)
	}
	return Candidate{
		Zone:        z,
		Probability: FallbackProbability,
		Confidence:  FallbackConfidence,
	}, nil
}

// build runs the feature builder and classifies its errors.
func (s *Service) build(target features.Target, trip features.Trip) (features.Vector, features.Derived, error) {
	vec, d, err := s.builder.Build(target, trip)
	switch {
	case err == nil:
	case errors.Is(err, features.ErrDropoffRequired), errors.Is(err, geo.ErrInvalidCoordinates):
		return vec, d, invalidInput("invalid trip", err)
	case errors.Is(err, zone.ErrUnknownZone):
		return vec, d, integrity("zone partition produced an unknown zone", err)
	default:
		return vec, d, unavailable("building features failed", err)
	}

	if len(vec.Defaulted) > 0 {
		s.logger.Debug().
			Str("target", target.String()).
			Strs("defaulted", vec.Defaulted).
			Msg("declared features filled with defaults")
	}
	s.logger.Debug().
		Str("target", target.String()).
		Strs("names", vec.Names).
		Floats64("values", vec.Values).
		Msg("feature vector built")

	return vec, d, nil
}

// finish records the outcome of a prediction on its span and counter.
func (s *Service) finish(ctx context.Context, span trace.Span, target features.Target, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target.String()),
		attribute.String("outcome", outcome),
	))
	span.End()
}
