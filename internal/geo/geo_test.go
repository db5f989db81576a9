package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxicast/taxicast/internal/geo"
)

var (
	timesSquare = geo.Point{Lat: 40.7580, Lon: -73.9855}
	jfk         = geo.Point{Lat: 40.6413, Lon: -73.7781}
	financial   = geo.Point{Lat: 40.7075, Lon: -74.0113}
	sydney      = geo.Point{Lat: -33.8688, Lon: 151.2093}
)

func TestHaversineDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		a, b      geo.Point
		expected  float64
		tolerance float64
	}{
		{name: "same point", a: timesSquare, b: timesSquare, expected: 0, tolerance: 1e-9},
		{name: "Times Square to JFK", a: timesSquare, b: jfk, expected: 21.8, tolerance: 0.5},
		{name: "Times Square to Financial District", a: timesSquare, b: financial, expected: 6.02, tolerance: 0.05},
		{name: "New York to Sydney", a: timesSquare, b: sydney, expected: 15990, tolerance: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := geo.HaversineDistanceKm(tt.a.Lat, tt.a.Lon, tt.b.Lat, tt.b.Lon)
			assert.InDelta(t, tt.expected, d, tt.tolerance)
		})
	}
}

func TestHaversineDistanceKm_Symmetric(t *testing.T) {
	points := []geo.Point{timesSquare, jfk, financial, sydney, {Lat: 0, Lon: 0}, {Lat: 89.9, Lon: 179.9}}

	for _, a := range points {
		for _, b := range points {
			ab := geo.HaversineDistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
			ba := geo.HaversineDistanceKm(b.Lat, b.Lon, a.Lat, a.Lon)
			assert.InDelta(t, ab, ba, 1e-9)
			if a == b {
				assert.InDelta(t, 0, ab, 1e-9)
			}
		}
	}
}

func TestBearingDegrees_Range(t *testing.T) {
	for lat1 := -80.0; lat1 <= 80; lat1 += 20 {
		for lon1 := -170.0; lon1 <= 170; lon1 += 34 {
			for lat2 := -85.0; lat2 <= 85; lat2 += 17 {
				for lon2 := -175.0; lon2 <= 175; lon2 += 35 {
					b := geo.BearingDegrees(lat1, lon1, lat2, lon2)
					require.GreaterOrEqual(t, b, 0.0)
					require.Less(t, b, 360.0)
				}
			}
		}
	}
}

func TestBearingDegrees_Cardinal(t *testing.T) {
	assert.InDelta(t, 0, geo.BearingDegrees(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, 90, geo.BearingDegrees(0, 0, 0, 1), 1e-9)
	assert.InDelta(t, 180, geo.BearingDegrees(1, 0, 0, 0), 1e-9)
	assert.InDelta(t, 270, geo.BearingDegrees(0, 1, 0, 0), 1e-9)
}

func TestBearingDegrees_NotSymmetric(t *testing.T) {
	ab := geo.BearingDegrees(timesSquare.Lat, timesSquare.Lon, jfk.Lat, jfk.Lon)
	ba := geo.BearingDegrees(jfk.Lat, jfk.Lon, timesSquare.Lat, timesSquare.Lon)
	assert.NotEqual(t, ab, ba)
	// Roughly opposite directions.
	assert.InDelta(t, 180, math.Abs(ab-ba), 1)
}

func TestManhattanProxyKm(t *testing.T) {
	d := geo.ManhattanProxyKm(40.0, -74.0, 41.0, -73.0)
	assert.InDelta(t, 222.0, d, 1e-9)
	assert.InDelta(t, d, geo.ManhattanProxyKm(41.0, -73.0, 40.0, -74.0), 1e-9)
}

func TestPoint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		point   geo.Point
		wantErr bool
	}{
		{name: "valid", point: timesSquare},
		{name: "bounds", point: geo.Point{Lat: -90, Lon: 180}},
		{name: "latitude too high", point: geo.Point{Lat: 90.1, Lon: 0}, wantErr: true},
		{name: "longitude too low", point: geo.Point{Lat: 0, Lon: -180.5}, wantErr: true},
		{name: "NaN", point: geo.Point{Lat: math.NaN(), Lon: 0}, wantErr: true},
		{name: "Inf", point: geo.Point{Lat: 0, Lon: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
				return
			}
			assert.NoError(t, err)
		})
	}
}
