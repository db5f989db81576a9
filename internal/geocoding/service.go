package geocoding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog"

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/provider/resilience"
)

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider is the geocoding provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records cache hits and misses (optional).
	Metrics *resilience.ProviderMetrics

	// CacheSize is the maximum number of cached lookups per operation (default: 1000).
	CacheSize int

	// CacheTTL is how long a lookup stays cached (default: 24 hours).
	// Place names and coordinates rarely change.
	CacheTTL time.Duration

	// Bounds restricts search results (default: NYC).
	Bounds BoundingBox
}

// Service provides cached geocoding. Upstream failures degrade to empty
// results so the map UI keeps working without the provider.
type Service struct {
	provider     Provider
	logger       zerolog.Logger
	metrics      *resilience.ProviderMetrics
	bounds       BoundingBox
	searchCache  gcache.Cache
	reverseCache gcache.Cache
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1000
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	bounds := cfg.Bounds
	if bounds.IsZero() {
		bounds = NYC
	}

	return &Service{
		provider:     cfg.Provider,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		bounds:       bounds,
		searchCache:  gcache.New(size).LRU().Expiration(ttl).Build(),
		reverseCache: gcache.New(size).LRU().Expiration(ttl).Build(),
	}
}

// Search returns at most limit places matching query inside the service
// area. Queries shorter than MinQueryLength and provider failures yield an
// empty, non-nil slice.
func (s *Service) Search(ctx context.Context, query string, limit int) []Place {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []Place{}
	}
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	key := fmt.Sprintf("%s|%d", strings.ToLower(query), limit)
	if cached, err := s.searchCache.Get(key); err == nil {
		s.metrics.RecordCacheHit(s.provider.Name(), "search")
		return cached.([]Place)
	}
	s.metrics.RecordCacheMiss(s.provider.Name(), "search")

	places, err := s.provider.Search(ctx, SearchRequest{
		Query:  query,
		Limit:  limit,
		Bounds: s.bounds,
	})
	if err != nil {
		s.warn(err).
			Int("query_length", len([]rune(query))).
			Msg("place search failed, returning no results")
		return []Place{}
	}

	if len(places) > limit {
		places = places[:limit]
	}
	if places == nil {
		places = []Place{}
	}

	_ = s.searchCache.Set(key, places)
	return places
}

// Reverse returns the display name of the place at point. An empty name is
// returned when the provider fails or knows no place there; only invalid
// coordinates produce an error.
func (s *Service) Reverse(ctx context.Context, point geo.Point) (string, error) {
	if err := point.Validate(); err != nil {
		return "", err
	}

	// ~1 m resolution is finer than any address lookup distinguishes.
	key := fmt.Sprintf("%.5f,%.5f", point.Lat, point.Lon)
	if cached, err := s.reverseCache.Get(key); err == nil {
		s.metrics.RecordCacheHit(s.provider.Name(), "reverse")
		return cached.(string), nil
	}
	s.metrics.RecordCacheMiss(s.provider.Name(), "reverse")

	place, err := s.provider.Reverse(ctx, point)
	if err != nil {
		s.warn(err).Msg("reverse geocoding failed, returning empty name")
		return "", nil
	}

	_ = s.reverseCache.Set(key, place.DisplayName)
	return place.DisplayName, nil
}

// CacheStats returns hit and miss counts across both caches.
func (s *Service) CacheStats() (hits, misses uint64) {
	hits = s.searchCache.HitCount() + s.reverseCache.HitCount()
	misses = s.searchCache.MissCount() + s.reverseCache.MissCount()
	return hits, misses
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// warn starts a provider failure log entry.
func (s *Service) warn(err error) *zerolog.Event {
	return resilience.LogError(s.logger.Warn().Str("provider", s.provider.Name()), err)
}
