// Package osrm provides a client for the OSRM route service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taxicast/taxicast/internal/provider/resilience"
	"github.com/taxicast/taxicast/internal/routing"
	"github.com/taxicast/taxicast/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "osrm"

	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps a response; a full-overview cross-city route is a few KB.
	maxBodyBytes = 4 << 20
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string

	// HTTPClient replaces the resilient client built from the fields below.
	HTTPClient HTTPDoer

	Timeout  time.Duration
	Registry *resilience.Registry
	Metrics  *resilience.ProviderMetrics
	Logger   zerolog.Logger
}

// Client is an OSRM route service client.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  zerolog.Logger
}

// NewClient creates a new OSRM client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	doer := cfg.HTTPClient
	if doer == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		rc.Timeout = orDefault(cfg.Timeout, DefaultTimeout)
		rc.UserAgent = cfg.UserAgent
		rc.Registry = cfg.Registry
		rc.Metrics = cfg.Metrics
		doer = resilience.NewClient(rc)
	}

	return &Client{
		baseURL: baseURL,
		http:    doer,
		logger:  cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetDirections retrieves the fastest route between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.Route, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(req), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, providerError("REQUEST_FAILED", "failed to reach routing provider",
			fmt.Errorf("%w: %w", routing.ErrProviderUnavailable, err))
	}
	defer resp.Body.Close()

	var body routeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, statusError(resp.StatusCode, "")
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || body.Code != codeOK {
		return nil, responseError(resp.StatusCode, &body)
	}
	if len(body.Routes) == 0 {
		return nil, providerError(codeNoRoute, "provider returned no routes", routing.ErrNoRouteFound)
	}

	best := body.Routes[0]
	geometry, err := polyline.Decode(best.Geometry, polyline.Precision5)
	if err != nil {
		return nil, fmt.Errorf("decoding route geometry: %w", err)
	}

	c.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Float64("distance_m", best.Distance).
		Float64("duration_s", best.Duration).
		Int("points", len(geometry)).
		Msg("route received")

	return &routing.Route{
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
		Geometry:        geometry,
		Provider:        ProviderName,
		FetchedAt:       time.Now(),
	}, nil
}

// routeURL builds /route/v1/{profile}/{lon,lat;lon,lat}. OSRM orders each
// pair longitude first.
func (c *Client) routeURL(req routing.DirectionsRequest) string {
	profile := req.Profile
	if profile == "" {
		profile = routing.ProfileDriving
	}
	pair := func(lon, lat float64) string {
		return strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
	}
	query := url.Values{
		"overview":     {"full"},
		"geometries":   {"polyline"},
		"alternatives": {"false"},
		"steps":        {"false"},
	}
	return c.baseURL + "/route/v1/" + string(profile) + "/" +
		pair(req.Origin.Lon, req.Origin.Lat) + ";" + pair(req.Destination.Lon, req.Destination.Lat) +
		"?" + query.Encode()
}

// codeErrors maps OSRM response codes that mean "this trip cannot be routed".
// Anything else is treated as the provider misbehaving.
var codeErrors = map[string]string{
	codeNoRoute:       "no route found between the given points",
	codeNoSegment:     "no road near one of the points",
	codeInvalidQuery:  "",
	codeInvalidValue:  "",
	codeInvalidInput:  "",
	codeInvalidURL:    "",
	codeInvalidOption: "",
	codeTooBig:        "",
}

func responseError(statusCode int, body *routeResponse) error {
	if message, ok := codeErrors[body.Code]; ok {
		if message == "" {
			message = body.Message
		}
		return providerError(body.Code, message, routing.ErrNoRouteFound)
	}
	return statusError(statusCode, body.Message)
}

func statusError(statusCode int, message string) error {
	if statusCode == http.StatusTooManyRequests {
		return providerError("RATE_LIMIT", "routing provider rate limit exceeded", routing.ErrRateLimitExceeded)
	}
	if message == "" {
		message = fmt.Sprintf("routing provider returned status %d", statusCode)
	}
	return providerError(fmt.Sprintf("HTTP_%d", statusCode), message, routing.ErrProviderUnavailable)
}

func providerError(code, message string, err error) *routing.Error {
	return &routing.Error{Provider: ProviderName, Code: code, Message: message, Err: err}
}
