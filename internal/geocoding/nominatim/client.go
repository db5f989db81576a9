// Package nominatim provides a client for the OpenStreetMap Nominatim
// geocoding API.
package nominatim

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

	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/geocoding"
	"github.com/taxicast/taxicast/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent is sent when none is configured. The public
	// instance rejects requests without an identifying User-Agent.
	DefaultUserAgent = "taxicast"

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second

	// reverseZoom asks for building-level detail.
	reverseZoom = "18"

	maxBodyBytes = 1 << 20
)

// Doer executes HTTP requests. *http.Client and *resilience.Client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client. Only Logger is
// required in practice; everything else has a usable default.
type ClientConfig struct {
	BaseURL   string
	UserAgent string

	// HTTPClient bypasses the resilient client. Tests pass httptest clients here.
	HTTPClient Doer

	Timeout  time.Duration
	Registry *resilience.Registry
	Metrics  *resilience.ProviderMetrics
	Logger   zerolog.Logger
}

// Client is a Nominatim API client.
type Client struct {
	base      *url.URL
	userAgent string
	doer      Doer
	log       zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		base, _ = url.Parse(DefaultBaseURL)
	}

	c := &Client{
		base:      base,
		userAgent: cfg.UserAgent,
		doer:      cfg.HTTPClient,
		log:       cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}

	if c.doer == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		}
		rc.UserAgent = c.userAgent
		rc.Registry = cfg.Registry
		rc.Metrics = cfg.Metrics
		c.doer = resilience.NewClient(rc)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search performs a forward geocoding query, restricted to req.Bounds when set.
// Results with unparseable coordinates are dropped.
func (c *Client) Search(ctx context.Context, req geocoding.SearchRequest) ([]geocoding.Place, error) {
	q := url.Values{"format": {"json"}, "q": {req.Query}}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if !req.Bounds.IsZero() {
		q.Set("viewbox", req.Bounds.String())
		q.Set("bounded", "1")
	}

	var hits []result
	if err := c.fetch(ctx, "search", q, &hits); err != nil {
		return nil, err
	}

	places := make([]geocoding.Place, 0, len(hits))
	for _, h := range hits {
		lat, lon, err := h.coordinates()
		if err != nil {
			c.log.Debug().Err(err).Int64("place_id", h.PlaceID).Msg("skipping malformed search result")
			continue
		}
		places = append(places, geocoding.Place{DisplayName: h.DisplayName, Lat: lat, Lon: lon})
	}

	c.log.Debug().Int("results", len(places)).Msg("search completed")
	return places, nil
}

// Reverse returns the named place nearest to point.
func (c *Client) Reverse(ctx context.Context, point geo.Point) (*geocoding.Place, error) {
	q := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(point.Lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(point.Lon, 'f', 6, 64)},
		"zoom":   {reverseZoom},
	}

	var hit result
	if err := c.fetch(ctx, "reverse", q, &hit); err != nil {
		return nil, err
	}

	// "Unable to geocode" arrives with status 200.
	if hit.Error != "" || hit.DisplayName == "" {
		return nil, providerError("NOT_FOUND", hit.Error, geocoding.ErrNotFound)
	}

	place := &geocoding.Place{DisplayName: hit.DisplayName, Lat: point.Lat, Lon: point.Lon}
	if lat, lon, err := hit.coordinates(); err == nil {
		place.Lat, place.Lon = lat, lon
	}
	return place, nil
}

// fetch issues GET {base}/{endpoint}?{q} and decodes a 200 body into out.
func (c *Client) fetch(ctx context.Context, endpoint string, q url.Values, out any) error {
	u := c.base.JoinPath(endpoint)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.doer.Do(req)
	if err != nil {
		return providerError("REQUEST_FAILED", "failed to reach geocoding provider",
			fmt.Errorf("%w: %w", geocoding.ErrProviderUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return statusError(resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

func statusError(status int) error {
	if status == http.StatusTooManyRequests {
		return providerError("RATE_LIMIT", "geocoding provider rate limit exceeded", geocoding.ErrRateLimitExceeded)
	}
	return providerError("HTTP_"+strconv.Itoa(status),
		"geocoding provider returned "+http.StatusText(status), geocoding.ErrProviderUnavailable)
}

func providerError(code, message string, err error) *geocoding.Error {
	return &geocoding.Error{Provider: ProviderName, Code: code, Message: message, Err: err}
}

// result is one search hit or a reverse lookup. Coordinates arrive as strings.
type result struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Error       string `json:"error,omitempty"`
}

func (r result) coordinates() (lat, lon float64, err error) {
	if lat, err = strconv.ParseFloat(r.Lat, 64); err != nil {
		return 0, 0, fmt.Errorf("parsing latitude %q: %w", r.Lat, err)
	}
	if lon, err = strconv.ParseFloat(r.Lon, 64); err != nil {
		return 0, 0, fmt.Errorf("parsing longitude %q: %w", r.Lon, err)
	}
	return lat, lon, nil
}
