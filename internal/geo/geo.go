// Package geo provides the geometric primitives used to engineer trip features.
package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// KmPerDegree is the flat approximation used by ManhattanProxyKm.
	KmPerDegree = 111.0
)

// ErrInvalidCoordinates indicates a latitude or longitude outside WGS84 bounds.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point represents a WGS84 coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Pair returns the point as a [lat, lon] pair, the shape used in API responses.
func (p Point) Pair() [2]float64 {
	return [2]float64{p.Lat, p.Lon}
}

// Validate checks that the point is a finite WGS84 coordinate.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinates, p.Lat)
	}
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinates, p.Lon)
	}
	return nil
}

// HaversineDistanceKm returns the great-circle distance between two points in kilometres.
func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// BearingDegrees returns the initial compass bearing from point 1 to point 2,
// normalised into [0, 360).
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	deg = math.Mod(math.Mod(deg, 360)+360, 360)
	// Mod can return 360 for tiny negative inputs after the shift.
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// ManhattanProxyKm returns (|Δlat| + |Δlon|) * 111. It is not a metric; the
// trained models were fit on this approximation so it is kept as a feature.
func ManhattanProxyKm(lat1, lon1, lat2, lon2 float64) float64 {
	return (math.Abs(lat2-lat1) + math.Abs(lon2-lon1)) * KmPerDegree
}
