package prediction

import (
	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/temporal"
	"github.com/taxicast/taxicast/internal/zone"
)

// Confidence labels.
const (
	ConfidenceVeryHigh = "Very High"
	ConfidenceHigh     = "High"
	ConfidenceMedium   = "Medium"
	ConfidenceLow      = "Low"
)

// TopK is the maximum number of destination candidates returned.
const TopK = 3

// Fallback candidate values used when the classifier cannot produce probabilities.
const (
	FallbackProbability = 85.0
	FallbackConfidence  = ConfidenceHigh
)

// TimeSummary is the temporal context echoed back to callers.
type TimeSummary struct {
	Hour       int
	Month      int
	Weekday    string
	IsRushHour bool
	IsWeekend  bool
}

func summarize(tf temporal.Features) TimeSummary {
	return TimeSummary{
		Hour:       tf.Hour,
		Month:      tf.Month,
		Weekday:    tf.WeekdayName,
		IsRushHour: tf.IsRushHour,
		IsWeekend:  tf.IsWeekend,
	}
}

// DurationResult is a trip duration prediction.
type DurationResult struct {
	Minutes    int
	DistanceKm float64
	Bearing    float64
	Pickup     zone.Zone
	Dropoff    zone.Zone
	PickupAt   geo.Point
	DropoffAt  geo.Point
	Time       TimeSummary
}

// Candidate is one ranked destination zone.
type Candidate struct {
	Zone zone.Zone
	// Probability is a percentage in [0, 100] with one decimal.
	Probability float64
	Confidence  string
}

// DestinationResult is a ranked destination prediction.
type DestinationResult struct {
	Pickup     zone.Zone
	PickupAt   geo.Point
	Time       TimeSummary
	Candidates []Candidate
	TotalZones int
	// Fallback is set when Candidates holds the single best class without calibrated probabilities.
	Fallback bool
}

// ConfidenceLabel buckets a probability in [0, 1].
func ConfidenceLabel(p float64) string {
	switch {
	case p >= 0.8:
		return ConfidenceVeryHigh
	case p >= 0.6:
		return ConfidenceHigh
	case p >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
