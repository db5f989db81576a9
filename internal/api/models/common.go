// Package models provides request and response models for the taxicast API.
// Field names follow the JSON contract consumed by the map frontend.
package models

import (
	"encoding/json"
	"time"
)

// Status values carried in every envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// LatLon is a coordinate serialized as [lat, lon].
type LatLon [2]float64

// HealthStatus is the coarse state reported by the ops endpoints.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp serializes as an RFC 3339 string in UTC with second precision.
type Timestamp time.Time

// TimestampOf converts an optional time. Nil stays nil so omitempty drops it.
func TimestampOf(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := Timestamp(*t)
	return &ts
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(time.RFC3339)+2)
	b = append(b, '"')
	b = time.Time(t).UTC().AppendFormat(b, time.RFC3339)
	return append(b, '"'), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
