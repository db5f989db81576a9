// Package resilience wraps calls to the public OpenStreetMap services
// (Nominatim, OSRM) with timeouts, retries and a circuit breaker, and keeps
// a health record per upstream for the status endpoint.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker for logging/metrics.
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval is the rolling window after which closed-state counts reset.
	// Zero keeps counts until the next state change.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker on a run of failures regardless
	// of volume. Zero disables the rule.
	ConsecutiveFailures uint32

	// MinRequests and FailureRatio trip the breaker once at least MinRequests
	// were seen in the window and the failure share reaches FailureRatio.
	MinRequests  uint32
	FailureRatio float64

	// OnStateChange is called when the circuit breaker state changes.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig suits the public demo servers: they throttle
// bursts, so a short open period is preferred over a long one.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:                name,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		MinRequests:         10,
		FailureRatio:        0.5,
	}
}

// ReadyToTrip reports whether counts breach either threshold.
func (c CircuitBreakerConfig) ReadyToTrip(counts gobreaker.Counts) bool {
	if c.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= c.ConsecutiveFailures {
		return true
	}
	if counts.Requests == 0 || counts.Requests < c.MinRequests {
		return false
	}
	return c.FailureRatio > 0 && float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

// countsAsSuccess keeps caller cancellations from tripping the breaker; the
// upstream did nothing wrong when a client hangs up.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		IsSuccessful:  countsAsSuccess,
		OnStateChange: cfg.OnStateChange,
	})
}
