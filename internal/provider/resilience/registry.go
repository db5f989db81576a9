package resilience

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one upstream.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string

	// OpenedAt is when the breaker last opened; nil if it never has.
	OpenedAt *time.Time

	// Trips counts closed or half-open to open transitions since startup.
	Trips int
}

// IsHealthy reports a closed breaker.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports a half-open breaker letting trial requests through.
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports an open breaker; calls fail fast until it half-opens.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry tracks upstream clients and the outcome of their requests.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*registeredProvider
	now       func() time.Time
}

type registeredProvider struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
	openedAt      *time.Time
	trips         int
}

// NewRegistry returns an empty registry. Clients join it through ClientConfig.Registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*registeredProvider),
		now:       time.Now,
	}
}

// Register adds a provider client to the registry, replacing any client
// already registered under name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &registeredProvider{client: client}
}

// RecordSuccess stamps the provider's last success. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastSuccessAt = &now
	})
}

// RecordFailure stamps the provider's last failure and keeps err's message.
func (r *Registry) RecordFailure(name string, err error) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	})
}

// RecordStateChange notes breaker transitions. It is installed as the
// breaker's OnStateChange hook by NewClient.
func (r *Registry) RecordStateChange(name string, _ gobreaker.State, to gobreaker.State) {
	if to != gobreaker.StateOpen {
		return
	}
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.openedAt = &now
		p.trips++
	})
}

func (r *Registry) update(name string, fn func(*registeredProvider, time.Time)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		fn(p, r.now())
	}
}

// GetHealth returns the health of one provider, or nil if it is unknown.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	p, ok := r.providers[name]
	var snapshot registeredProvider
	if ok {
		snapshot = *p
	}
	r.mu.RUnlock()

	if !ok {
		return nil
	}
	return snapshot.health(name)
}

// GetAllHealth returns every provider's health, ordered by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	snapshots := make(map[string]registeredProvider, len(r.providers))
	for name, p := range r.providers {
		snapshots[name] = *p
	}
	r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(snapshots))
	for _, name := range slices.Sorted(maps.Keys(snapshots)) {
		p := snapshots[name]
		health = append(health, p.health(name))
	}
	return health
}

// health reads breaker state, so it must run without r.mu held: the breaker
// calls RecordStateChange while holding its own lock.
func (p *registeredProvider) health(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:          name,
		CircuitState:  p.client.CircuitBreakerState(),
		Counts:        p.client.CircuitBreakerCounts(),
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,
		OpenedAt:      p.openedAt,
		Trips:         p.trips,
	}
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}
