// Package config reads the process configuration from the environment once
// at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/taxicast/taxicast/internal/database"
)

// Zone metadata sources.
const (
	ZoneSourceFile     = "file"
	ZoneSourcePostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Port        string
	Environment string

	// ModelDir holds the model artifacts loaded by the registry.
	ModelDir string

	// ZoneMetadataSource is "file" or "postgres".
	ZoneMetadataSource string

	NominatimBaseURL   string
	NominatimUserAgent string
	OSRMBaseURL        string
	ProviderTimeout    time.Duration

	GeocodeCacheSize int
	GeocodeCacheTTL  time.Duration
	RouteCacheTTL    time.Duration

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	RequireTLS bool

	// Database is only used with the postgres zone metadata source.
	Database database.Config
}

// Load reads Config from the environment. Every malformed value is reported.
func Load() (Config, error) {
	p := parser{}

	cfg := Config{
		Port:               getEnvOrDefault("APP_PORT", "8080"),
		Environment:        getEnvOrDefault("APP_ENV", "development"),
		ModelDir:           getEnvOrDefault("MODEL_DIR", "./models"),
		ZoneMetadataSource: strings.ToLower(getEnvOrDefault("ZONE_METADATA_SOURCE", ZoneSourceFile)),
		NominatimBaseURL:   getEnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: getEnvOrDefault("NOMINATIM_USER_AGENT", "taxicast"),
		OSRMBaseURL:        getEnvOrDefault("OSRM_BASE_URL", "https://router.project-osrm.org"),
		ProviderTimeout:    p.duration("PROVIDER_TIMEOUT", 10*time.Second),
		GeocodeCacheSize:   p.integer("GEOCODE_CACHE_SIZE", 1000),
		GeocodeCacheTTL:    p.duration("GEOCODE_CACHE_TTL", 24*time.Hour),
		RouteCacheTTL:      p.duration("ROUTE_CACHE_TTL", 10*time.Minute),
		OTelEnabled:        p.boolean("OTEL_ENABLED", false),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:    p.number("OTEL_SAMPLE_RATIO", 1.0),
		RequireTLS:         p.boolean("REQUIRE_TLS", false),
	}

	switch cfg.ZoneMetadataSource {
	case ZoneSourceFile:
	case ZoneSourcePostgres:
		cfg.Database = database.ConfigFromEnv()
		if err := cfg.Database.Validate(); err != nil {
			p.errs = append(p.errs, err)
		}
	default:
		p.errs = append(p.errs, fmt.Errorf("ZONE_METADATA_SOURCE must be %q or %q, got %q",
			ZoneSourceFile, ZoneSourcePostgres, cfg.ZoneMetadataSource))
	}

	if cfg.GeocodeCacheSize <= 0 {
		p.errs = append(p.errs, errors.New("GEOCODE_CACHE_SIZE must be positive"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parser collects parse failures so Load can report them together.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a positive duration", key, raw))
		return def
	}
	return v
}

func (p *parser) integer(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return def
	}
	return v
}

func (p *parser) number(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, raw))
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
