package routing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/provider/resilience"
)

// Cache defaults.
const (
	DefaultCacheSize       = 2000
	DefaultCacheTTL        = 10 * time.Minute
	DefaultStaleIfErrorTTL = time.Hour
	DefaultCacheGridSize   = 0.001 // ~110 m in latitude
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger

	// Metrics records cache hits and misses (optional).
	Metrics *resilience.ProviderMetrics

	// CacheSize bounds the number of trips kept, least recently used first out.
	CacheSize int

	// CacheTTL is how long a route is served without asking the provider.
	CacheTTL time.Duration

	// StaleIfErrorTTL is how long a route is kept as a fallback for provider
	// failures. Values below CacheTTL are raised to it.
	StaleIfErrorTTL time.Duration

	// CacheGridSize is the cell size in degrees both endpoints are snapped
	// to, so nearby trips share a cached route.
	CacheGridSize float64
}

// Service provides driving routes with caching. Provider failures degrade to a
// neutral route instead of an error.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	metrics  *resilience.ProviderMetrics
	ttl      time.Duration
	grid     float64

	// Entries live for the stale window; freshness is judged from fetchedAt.
	cache  gcache.Cache
	flight singleflight.Group
	now    func() time.Time
}

type cachedRoute struct {
	route     *Route
	fetchedAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	stale := cfg.StaleIfErrorTTL
	if stale <= 0 {
		stale = DefaultStaleIfErrorTTL
	}
	stale = max(stale, ttl)
	grid := cfg.CacheGridSize
	if grid <= 0 {
		grid = DefaultCacheGridSize
	}

	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		ttl:      ttl,
		grid:     grid,
		cache:    gcache.New(size).LRU().Expiration(stale).Build(),
		now:      time.Now,
	}
}

// GetRoute returns the driving route between two points.
// Only invalid coordinates produce an error; provider failures yield a
// degraded route with no geometry unless a stale cached route is available.
func (s *Service) GetRoute(ctx context.Context, origin, destination geo.Point) (*Route, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	req := DirectionsRequest{Origin: origin, Destination: destination, Profile: ProfileDriving}
	key := s.cacheKey(req)

	cached := s.lookup(key)
	if cached != nil && s.fresh(cached) {
		s.metrics.RecordCacheHit(s.provider.Name(), "route")
		return cached.route, nil
	}
	s.metrics.RecordCacheMiss(s.provider.Name(), "route")

	// Concurrent misses for one trip share a single provider call. The call
	// outlives any one caller's cancellation; the provider timeout bounds it.
	v, _, _ := s.flight.Do(key, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), req, key), nil
	})
	return v.(*Route), nil
}

func (s *Service) fetch(ctx context.Context, req DirectionsRequest, key string) *Route {
	route, err := s.provider.GetDirections(ctx, req)
	if err == nil {
		_ = s.cache.Set(key, &cachedRoute{route: route, fetchedAt: s.now()})
		s.logger.Debug().Int("points", len(route.Geometry)).Msg("cached route")
		return route
	}

	event := resilience.LogError(s.logger.Warn().Str("provider", s.provider.Name()), err)
	if stale := s.lookup(key); stale != nil {
		event.Time("fetched_at", stale.fetchedAt).Msg("route provider failed, serving stale route")
		return stale.route
	}
	event.Msg("route provider failed, returning degraded route")
	return &Route{Provider: s.provider.Name(), FetchedAt: s.now(), Degraded: true}
}

func (s *Service) lookup(key string) *cachedRoute {
	v, err := s.cache.Get(key)
	if err != nil {
		return nil
	}
	return v.(*cachedRoute)
}

func (s *Service) fresh(c *cachedRoute) bool {
	return s.now().Before(c.fetchedAt.Add(s.ttl))
}

// cacheKey snaps both endpoints to the grid. Direction matters: A to B and
// B to A are different keys.
func (s *Service) cacheKey(req DirectionsRequest) string {
	snap := func(v float64) float64 {
		return math.Floor(v/s.grid) * s.grid
	}
	return fmt.Sprintf("%s:%.4f,%.4f:%.4f,%.4f",
		req.Profile,
		snap(req.Origin.Lat), snap(req.Origin.Lon),
		snap(req.Destination.Lat), snap(req.Destination.Lon),
	)
}

// InvalidateCache drops every cached route.
func (s *Service) InvalidateCache() {
	s.cache.Purge()
}

// CacheStats summarizes the route cache.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Hits         uint64
	Misses       uint64
	Provider     string
}

// CacheStats returns entry counts split by freshness plus lookup counters.
func (s *Service) CacheStats() CacheStats {
	stats := CacheStats{
		Hits:     s.cache.HitCount(),
		Misses:   s.cache.MissCount(),
		Provider: s.provider.Name(),
	}
	for _, v := range s.cache.GetALL(true) {
		stats.TotalEntries++
		if s.fresh(v.(*cachedRoute)) {
			stats.FreshEntries++
		} else {
			stats.StaleEntries++
		}
	}
	return stats
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
