// Package api provides the HTTP API for taxicast.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/taxicast/taxicast/internal/api/handler"
	"github.com/taxicast/taxicast/internal/api/middleware"
	"github.com/taxicast/taxicast/internal/api/response"
	"github.com/taxicast/taxicast/internal/geocoding"
	"github.com/taxicast/taxicast/internal/prediction"
	"github.com/taxicast/taxicast/internal/provider/resilience"
	"github.com/taxicast/taxicast/internal/routing"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	PredictionService *prediction.Service
	// GeocodingService and RoutingService are optional; their endpoints
	// are only mounted when set.
	GeocodingService *geocoding.Service
	RoutingService   *routing.Service
	Providers        *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "taxicast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.PredictionService, cfg.Providers)
	predictionHandler := handler.NewPredictionHandler(cfg.PredictionService, cfg.Logger)
	metadataHandler := handler.NewMetadataHandler(cfg.PredictionService.Zones())

	// Create rate limit middleware for different endpoint categories
	predictionRateLimit := middleware.RateLimitByIP(middleware.PredictionRateLimit) // 60 req/min
	proxyRateLimit := middleware.RateLimitByIP(middleware.ProxyRateLimit)           // 30 req/min
	upstreamRateLimit := middleware.RateLimitGlobal(middleware.UpstreamRateLimit)   // 60 req/min total
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)     // 100 req/min

	// Ops endpoints (unlimited, polled by the platform)
	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	// Prediction endpoints (canonical and legacy paths share one limiter)
	r.Group(func(r chi.Router) {
		r.Use(predictionRateLimit)
		r.Use(middleware.RequireJSON)
		r.Post("/predict-duration", predictionHandler.PredictDuration)
		r.Post("/predict-destination", predictionHandler.PredictDestination)
	})

	r.Route("/api", func(r chi.Router) {
		// Legacy paths used by the map frontend
		r.Group(func(r chi.Router) {
			r.Use(predictionRateLimit)
			r.Use(middleware.RequireJSON)
			r.Post("/predict_duration", predictionHandler.PredictDuration)
			r.Post("/predict_destination", predictionHandler.PredictDestination)
		})

		r.With(standardRateLimit).Get("/clusters", metadataHandler.ListClusters)

		// Third-party proxies - strict rate limiting to respect fair-use policies
		r.Group(func(r chi.Router) {
			r.Use(proxyRateLimit, upstreamRateLimit)
			if cfg.GeocodingService != nil {
				geocodingHandler := handler.NewGeocodingHandler(cfg.GeocodingService)
				r.Get("/search", geocodingHandler.Search)
				r.Get("/reverse", geocodingHandler.Reverse)
			}
			if cfg.RoutingService != nil {
				routeHandler := handler.NewRouteHandler(cfg.RoutingService)
				r.Get("/route", routeHandler.GetRoute)
			}
		})
	})

	return r
}
