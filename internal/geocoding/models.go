// Package geocoding provides place search and reverse geocoding for the
// trip planner, restricted to the New York City service area.
package geocoding

import (
	"context"
	"errors"
	"fmt"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/provider/resilience"
)

// Sentinel errors for geocoding operations.
var (
	// ErrProviderUnavailable indicates the geocoding provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the provider's usage policy limit was hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrNotFound indicates the provider has no place for the given input.
	ErrNotFound = errors.New("place not found")
)

// MaxResults caps the number of search results returned to clients.
const MaxResults = 10

// MinQueryLength is the shortest query forwarded to the provider.
const MinQueryLength = 3

// BoundingBox is a lon/lat rectangle.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// NYC covers the five boroughs and both airports.
var NYC = BoundingBox{MinLon: -74.25, MinLat: 40.49, MaxLon: -73.70, MaxLat: 40.91}

// String formats the box as "minLon,minLat,maxLon,maxLat".
func (b BoundingBox) String() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// IsZero reports whether the box is unset.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Place is a named location.
type Place struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// SearchRequest is a forward geocoding query.
type SearchRequest struct {
	Query string
	Limit int
	// Bounds restricts results to a rectangle when non-zero.
	Bounds BoundingBox
}

// Provider defines the interface for geocoding providers.
type Provider interface {
	// Search returns places matching a free-text query.
	Search(ctx context.Context, req SearchRequest) ([]Place, error)
	// Reverse returns the place at a point.
	Reverse(ctx context.Context, point geo.Point) (*Place, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Error is the error returned by geocoding providers. Err carries one of
// the sentinels above.
type Error = resilience.ProviderError
