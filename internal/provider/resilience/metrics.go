package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/taxicast/taxicast/internal/provider/resilience"

// Attribute keys shared by the provider instruments.
const (
	attrProvider  = attribute.Key("provider.name")
	attrOperation = attribute.Key("provider.operation")
)

// ProviderMetrics records upstream call outcomes, cache lookups in front of
// the providers, and breaker transitions. A nil *ProviderMetrics is valid and
// records nothing.
type ProviderMetrics struct {
	latency     metric.Float64Histogram
	calls       metric.Int64Counter
	lookups     metric.Int64Counter
	transitions metric.Int64Counter
}

// NewProviderMetrics registers the instruments on the global meter provider.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)
	m := &ProviderMetrics{}
	var err error

	if m.latency, err = meter.Float64Histogram("provider.call.duration",
		metric.WithDescription("Time spent on one logical provider call, retries included"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.calls, err = meter.Int64Counter("provider.calls",
		metric.WithDescription("Logical provider calls, by outcome"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.lookups, err = meter.Int64Counter("provider.cache.lookups",
		metric.WithDescription("Cache lookups in front of a provider, by hit or miss"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if m.transitions, err = meter.Int64Counter("provider.circuit.transitions",
		metric.WithDescription("Circuit breaker state transitions, by target state"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequest records one logical call. Context is not taken from the
// request: it may already be cancelled when the call completes.
func (m *ProviderMetrics) RecordRequest(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(attrProvider.String(provider), attribute.Bool("error", err != nil))
	m.latency.Record(context.Background(), duration.Seconds(), opt)
	m.calls.Add(context.Background(), 1, opt)
}

// RecordCacheHit records a cache hit for a provider operation.
func (m *ProviderMetrics) RecordCacheHit(provider, operation string) {
	m.recordLookup(provider, operation, true)
}

// RecordCacheMiss records a cache miss for a provider operation.
func (m *ProviderMetrics) RecordCacheMiss(provider, operation string) {
	m.recordLookup(provider, operation, false)
}

func (m *ProviderMetrics) recordLookup(provider, operation string, hit bool) {
	if m == nil {
		return
	}
	m.lookups.Add(context.Background(), 1, metric.WithAttributes(
		attrProvider.String(provider),
		attrOperation.String(operation),
		attribute.Bool("cache.hit", hit),
	))
}

// RecordStateChange counts a breaker transition into state to.
func (m *ProviderMetrics) RecordStateChange(provider string, to gobreaker.State) {
	if m == nil {
		return
	}
	m.transitions.Add(context.Background(), 1, metric.WithAttributes(
		attrProvider.String(provider),
		attribute.String("circuit.state", to.String()),
	))
}
