// Package features turns a trip request into the ordered numeric row a model expects.
//
// Building happens in two steps. Assemble computes every canonical feature the
// target can use. Reconcile then projects that mapping onto the model's
// declared feature list, filling declared-but-missing names from an explicit
// default policy, so the row always matches the model column for column.
package features

import (
	"fmt"
	"math"
	"time"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/temporal"
	"github.com/taxicast/taxicast/internal/zone"
)

// Target selects which model a vector is built for.
type Target int

const (
	// Duration is the trip duration regressor.
	Duration Target = iota
	// Destination is the destination zone classifier.
	Destination
)

func (t Target) String() string {
	switch t {
	case Duration:
		return "duration"
	case Destination:
		return "destination"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Canonical feature names.
const (
	DistanceKm        = "distance_km"
	PickupLongitude   = "pickup_longitude"
	PickupLatitude    = "pickup_latitude"
	DropoffLongitude  = "dropoff_longitude"
	DropoffLatitude   = "dropoff_latitude"
	Bearing           = "bearing"
	ManhattanDistance = "manhattan_distance"
	LogDistance       = "log_distance"
	Hour              = "hour"
	Month             = "month"
	IsWeekend         = "is_weekend"
	IsRushHour        = "is_rush_hour"
	PassengerCount    = "passenger_count"
	PickupCluster     = "pickup_cluster"
	DropoffCluster    = "dropoff_cluster"
	DayOfWeekIdx      = "day_of_week_idx"
	HourSin           = "hour_sin"
	HourCos           = "hour_cos"
	MonthSin          = "month_sin"
	MonthCos          = "month_cos"
)

// DurationCatalogue lists every feature assembled for the Duration target.
var DurationCatalogue = []string{
	DistanceKm, PickupLongitude, PickupLatitude, DropoffLongitude, DropoffLatitude,
	Bearing, ManhattanDistance, LogDistance, Hour, Month, IsWeekend, IsRushHour,
	PassengerCount, PickupCluster, DropoffCluster, DayOfWeekIdx,
	HourSin, HourCos, MonthSin, MonthCos,
}

// DestinationCatalogue lists every feature assembled for the Destination target.
var DestinationCatalogue = []string{
	PickupLongitude, PickupLatitude, Hour, Month, IsWeekend, IsRushHour,
	PassengerCount, PickupCluster, DayOfWeekIdx,
	HourSin, HourCos, MonthSin, MonthCos,
}

// Catalogue returns the canonical names assembled for target.
func Catalogue(target Target) []string {
	if target == Duration {
		return append([]string(nil), DurationCatalogue...)
	}
	return append([]string(nil), DestinationCatalogue...)
}

// Trip is a validated prediction request.
type Trip struct {
	Pickup geo.Point
	// Dropoff is required for Duration and ignored for Destination.
	Dropoff    *geo.Point
	Passengers int
	At         time.Time
}

// Derived holds everything computed from a trip on the way to a vector.
// Prediction responses are built from it, so nothing is computed twice.
type Derived struct {
	Time        temporal.Features
	PickupZone  zone.Zone
	DropoffZone zone.Zone
	DistanceKm  float64
	Bearing     float64
	Manhattan   float64
}

// Assemble computes the canonical feature mapping for target.
// DropoffZone, DistanceKm, Bearing and Manhattan are only read for Duration.
func Assemble(target Target, trip Trip, d Derived) map[string]float64 {
	m := map[string]float64{
		PickupLongitude: trip.Pickup.Lon,
		PickupLatitude:  trip.Pickup.Lat,
		Hour:            float64(d.Time.Hour),
		Month:           float64(d.Time.Month),
		IsWeekend:       boolFloat(d.Time.IsWeekend),
		IsRushHour:      boolFloat(d.Time.IsRushHour),
		PassengerCount:  float64(trip.Passengers),
		PickupCluster:   float64(d.PickupZone.ID),
		DayOfWeekIdx:    float64(d.Time.WeekdayIndexOneBased),
		HourSin:         d.Time.HourSin,
		HourCos:         d.Time.HourCos,
		MonthSin:        d.Time.MonthSin,
		MonthCos:        d.Time.MonthCos,
	}
	if target != Duration || trip.Dropoff == nil {
		return m
	}

	m[DistanceKm] = d.DistanceKm
	m[DropoffLongitude] = trip.Dropoff.Lon
	m[DropoffLatitude] = trip.Dropoff.Lat
	m[Bearing] = d.Bearing
	m[ManhattanDistance] = d.Manhattan
	m[LogDistance] = math.Log1p(d.DistanceKm)
	m[DropoffCluster] = float64(d.DropoffZone.ID)
	return m
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
