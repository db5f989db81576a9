package prediction

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/taxicast/taxicast/internal/features"
	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/temporal"
)

var errNotInteger = errors.New("not a whole number")

// Number is a request field holding a float. It decodes from a JSON number
// or a numeric string (the web client posts raw input values). A value that
// does not parse is kept as an error and reported by Request.Trip.
type Number struct {
	value float64
	err   error
}

// NumberOf returns a Number holding v.
func NumberOf(v float64) *Number {
	return &Number{value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	n.value, n.err = parseNumeric(b)
	return nil
}

// Count is a request field holding a whole number, decoded like Number.
type Count struct {
	value int
	err   error
}

// CountOf returns a Count holding v.
func CountOf(v int) *Count {
	return &Count{value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count{}
	v, err := parseNumeric(b)
	switch {
	case err != nil:
		c.err = err
	case v != math.Trunc(v) || math.Abs(v) > math.MaxInt32:
		c.err = errNotInteger
	default:
		c.value = int(v)
	}
	return nil
}

// parseNumeric reads a JSON number, or a string containing one.
func parseNumeric(b []byte) (float64, error) {
	raw := string(bytes.TrimSpace(b))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(b, &raw); err != nil {
			return 0, err
		}
		raw = strings.TrimSpace(raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// Request is a prediction request as received from clients.
// Fields are pointers so an explicit 0 is distinguishable from absence.
type Request struct {
	PickupLat  *Number `json:"pickup_lat"`
	PickupLon  *Number `json:"pickup_lon"`
	DropoffLat *Number `json:"dropoff_lat,omitempty"`
	DropoffLon *Number `json:"dropoff_lon,omitempty"`
	Passengers *Count  `json:"passengers"`
	Datetime   string  `json:"datetime"`
}

// Trip validates r for target and converts it to a features.Trip.
// Dropoff coordinates are required for Duration and ignored for Destination.
func (r Request) Trip(target features.Target) (features.Trip, error) {
	if r.PickupLat == nil || r.PickupLon == nil {
		return features.Trip{}, invalidInput("pickup coordinates are required", nil)
	}
	pickup, err := point("pickup", r.PickupLat, r.PickupLon)
	if err != nil {
		return features.Trip{}, err
	}

	trip := features.Trip{Pickup: pickup}

	if target == features.Duration {
		if r.DropoffLat == nil || r.DropoffLon == nil {
			return features.Trip{}, invalidInput("dropoff coordinates are required", nil)
		}
		dropoff, err := point("dropoff", r.DropoffLat, r.DropoffLon)
		if err != nil {
			return features.Trip{}, err
		}
		trip.Dropoff = &dropoff
	}

	switch {
	case r.Passengers == nil:
		return features.Trip{}, invalidInput("passengers is required", nil)
	case errors.Is(r.Passengers.err, errNotInteger):
		return features.Trip{}, invalidInput("passengers must be a positive integer", r.Passengers.err)
	case r.Passengers.err != nil:
		return features.Trip{}, invalidInput("passengers must be a number", r.Passengers.err)
	case r.Passengers.value < 1:
		return features.Trip{}, invalidInput("passengers must be a positive integer", nil)
	}
	trip.Passengers = r.Passengers.value

	at, err := temporal.Parse(r.Datetime)
	if err != nil {
		return features.Trip{}, invalidInput("invalid datetime", err)
	}
	trip.At = at

	return trip, nil
}

// point checks that lat and lon parsed and lie in WGS84 range. name prefixes
// the field names in messages.
func point(name string, lat, lon *Number) (geo.Point, error) {
	if lat.err != nil {
		return geo.Point{}, invalidInput(name+"_lat must be a number", lat.err)
	}
	if lon.err != nil {
		return geo.Point{}, invalidInput(name+"_lon must be a number", lon.err)
	}
	p := geo.Point{Lat: lat.value, Lon: lon.value}
	if err := p.Validate(); err != nil {
		return geo.Point{}, invalidInput("invalid "+name+" coordinates", err)
	}
	return p, nil
}
