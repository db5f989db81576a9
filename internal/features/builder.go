package features

import (
	"errors"
	"fmt"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/registry"
	"github.com/taxicast/taxicast/internal/temporal"
)

// ErrDropoffRequired is returned when a Duration vector is requested without a dropoff point.
var ErrDropoffRequired = errors.New("dropoff coordinates are required")

// Builder builds vectors against the models held by a registry.
type Builder struct {
	registry *registry.Registry
}

// NewBuilder creates a Builder.
func NewBuilder(reg *registry.Registry) *Builder {
	return &Builder{registry: reg}
}

// Declared returns the declared feature list of target's model.
func (b *Builder) Declared(target Target) []string {
	if target == Duration {
		return b.registry.DurationFeatures()
	}
	return b.registry.DestinationFeatures()
}

// Build derives features from trip, assigns zones and reconciles the result
// against target's declared feature list.
func (b *Builder) Build(target Target, trip Trip) (Vector, Derived, error) {
	if target == Duration && trip.Dropoff == nil {
		return Vector{}, Derived{}, ErrDropoffRequired
	}

	d := Derived{Time: temporal.Extract(trip.At)}

	pickup, err := b.registry.Zones().Assign(trip.Pickup)
	if err != nil {
		return Vector{}, Derived{}, fmt.Errorf("pickup: %w", err)
	}
	d.PickupZone = pickup

	if target == Duration {
		dropoff, err := b.registry.Zones().Assign(*trip.Dropoff)
		if err != nil {
			return Vector{}, Derived{}, fmt.Errorf("dropoff: %w", err)
		}
		d.DropoffZone = dropoff

		p, q := trip.Pickup, *trip.Dropoff
		d.DistanceKm = geo.HaversineDistanceKm(p.Lat, p.Lon, q.Lat, q.Lon)
		d.Bearing = geo.BearingDegrees(p.Lat, p.Lon, q.Lat, q.Lon)
		d.Manhattan = geo.ManhattanProxyKm(p.Lat, p.Lon, q.Lat, q.Lon)
	}

	v := Reconcile(Assemble(target, trip, d), b.Declared(target), d.Time)
	return v, d, nil
}
