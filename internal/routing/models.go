// Package routing provides driving routes between a pickup and a dropoff
// for display next to duration predictions.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/provider/resilience"
	"github.com/taxicast/taxicast/pkg/polyline"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider's fair-use limit was hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetDirections retrieves the best route between two points.
	GetDirections(ctx context.Context, req DirectionsRequest) (*Route, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Profile is a routing profile.
type Profile string

// ProfileDriving routes for cars, which is what taxis use.
const ProfileDriving Profile = "driving"

// DirectionsRequest is the request for computing a route.
type DirectionsRequest struct {
	Origin      geo.Point
	Destination geo.Point
	Profile     Profile
}

// Route is a single driving route.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []polyline.Coordinate
	Provider        string
	FetchedAt       time.Time
	// Degraded marks a neutral route returned because the provider failed.
	Degraded bool
}

// DistanceKm returns the route length in kilometres, rounded to two decimals.
func (r *Route) DistanceKm() float64 {
	return float64(int64(r.DistanceMeters/10+0.5)) / 100
}

// DurationMinutes returns the route duration in whole minutes.
func (r *Route) DurationMinutes() int {
	return int(r.DurationSeconds/60 + 0.5)
}

// Error is the error returned by routing providers. Err carries one of
// the sentinels above.
type Error = resilience.ProviderError
