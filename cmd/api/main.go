// Package main provides the entrypoint for the taxicast API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/taxicast/taxicast/internal/api"
	"github.com/taxicast/taxicast/internal/api/middleware"
	"github.com/taxicast/taxicast/internal/config"
	"github.com/taxicast/taxicast/internal/database"
	"github.com/taxicast/taxicast/internal/geocoding"
	"github.com/taxicast/taxicast/internal/geocoding/nominatim"
	"github.com/taxicast/taxicast/internal/prediction"
	"github.com/taxicast/taxicast/internal/provider/resilience"
	"github.com/taxicast/taxicast/internal/registry"
	"github.com/taxicast/taxicast/internal/routing"
	"github.com/taxicast/taxicast/internal/routing/osrm"
	"github.com/taxicast/taxicast/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "taxicast-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting taxicast API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	providerMetrics, err := resilience.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	zoneSource, closeZoneSource := newZoneSource(ctx, cfg, log)
	reg, err := registry.Load(ctx, registry.LoadConfig{
		Dir:        cfg.ModelDir,
		ZoneSource: zoneSource,
		Logger:     log,
	})
	closeZoneSource()
	if err != nil {
		log.Fatal().Err(err).Str("model_dir", cfg.ModelDir).Msg("failed to load model registry")
	}

	summary := reg.Summary()
	log.Info().
		Str("model_dir", cfg.ModelDir).
		Int("zones", summary.ZoneCount).
		Int("duration_features", len(summary.DurationFeatures)).
		Int("destination_features", len(summary.DestinationFeatures)).
		Msg("model registry loaded")

	predictionService, err := prediction.NewService(prediction.ServiceConfig{
		Registry: reg,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize prediction service")
	}

	providers := resilience.NewRegistry()

	geocoder := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:   cfg.NominatimBaseURL,
		UserAgent: cfg.NominatimUserAgent,
		Timeout:   cfg.ProviderTimeout,
		Registry:  providers,
		Metrics:   providerMetrics,
		Logger:    log,
	})
	geocodingService := geocoding.NewService(geocoding.ServiceConfig{
		Provider:  geocoder,
		Logger:    log,
		Metrics:   providerMetrics,
		CacheSize: cfg.GeocodeCacheSize,
		CacheTTL:  cfg.GeocodeCacheTTL,
	})

	router := osrm.NewClient(osrm.ClientConfig{
		BaseURL:   cfg.OSRMBaseURL,
		UserAgent: cfg.NominatimUserAgent,
		Timeout:   cfg.ProviderTimeout,
		Registry:  providers,
		Metrics:   providerMetrics,
		Logger:    log,
	})
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: router,
		Logger:   log,
		Metrics:  providerMetrics,
		CacheTTL: cfg.RouteCacheTTL,
	})

	log.Info().
		Strs("providers", providers.Names()).
		Msg("upstream providers initialized")

	handler := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		RequireTLS:        cfg.RequireTLS,
		PredictionService: predictionService,
		GeocodingService:  geocodingService,
		RoutingService:    routingService,
		Providers:         providers,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// newZoneSource picks where zone display metadata comes from. The returned
// func releases any connection once the registry is loaded.
func newZoneSource(ctx context.Context, cfg config.Config, log zerolog.Logger) (registry.ZoneSource, func()) {
	if cfg.ZoneMetadataSource != config.ZoneSourcePostgres {
		return registry.FileZoneSource{Path: filepath.Join(cfg.ModelDir, registry.ZoneMetadataFile)}, func() {}
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	return registry.NewPostgresZoneSource(pool), pool.Close
}
