package models

import (
	"github.com/taxicast/taxicast/internal/provider/resilience"
	"github.com/taxicast/taxicast/internal/registry"
)

// Health represents the liveness of the service.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// Readiness reports whether the models are loaded and what they expect.
type Readiness struct {
	Status   HealthStatus     `json:"status"`
	Time     Timestamp        `json:"time"`
	Registry registry.Summary `json:"registry"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuit_state"`
	LastSuccessAt *Timestamp   `json:"last_success_at,omitempty"`
	LastFailureAt *Timestamp   `json:"last_failure_at,omitempty"`
	OpenedAt      *Timestamp   `json:"opened_at,omitempty"`
	Trips         int          `json:"trips"`
	Message       *string      `json:"message,omitempty"`
}

// NewProviderStatus converts tracked provider health to its wire form.
func NewProviderStatus(h *resilience.ProviderHealth) ProviderStatus {
	ps := ProviderStatus{
		Provider:      h.Name,
		Status:        HealthStatusOK,
		CircuitState:  h.CircuitState.String(),
		Trips:         h.Trips,
		LastSuccessAt: TimestampOf(h.LastSuccessAt),
		LastFailureAt: TimestampOf(h.LastFailureAt),
		OpenedAt:      TimestampOf(h.OpenedAt),
	}
	switch {
	case h.IsUnhealthy():
		ps.Status = HealthStatusFail
	case h.IsDegraded():
		ps.Status = HealthStatusDegraded
	}
	if h.LastError != "" {
		msg := h.LastError
		ps.Message = &msg
	}
	return ps
}

// NewSystemStatus aggregates provider health. Any failing provider degrades
// the system; prediction does not depend on providers so it never fails.
func NewSystemStatus(now Timestamp, health []*resilience.ProviderHealth) SystemStatus {
	status := SystemStatus{
		Status:    HealthStatusOK,
		Time:      now,
		Providers: make([]ProviderStatus, 0, len(health)),
	}
	for _, h := range health {
		ps := NewProviderStatus(h)
		if ps.Status != HealthStatusOK {
			status.Status = HealthStatusDegraded
		}
		status.Providers = append(status.Providers, ps)
	}
	return status
}
