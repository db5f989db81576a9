package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/taxicast/taxicast/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Default rate limit configurations.
var (
	// PredictionRateLimit applies per client to model inference endpoints.
	PredictionRateLimit = RateLimitConfig{
		RequestLimit: 60,
		WindowLength: time.Minute,
	}

	// ProxyRateLimit applies per client to endpoints that call Nominatim or OSRM.
	ProxyRateLimit = RateLimitConfig{
		RequestLimit: 30,
		WindowLength: time.Minute,
	}

	// UpstreamRateLimit caps proxy traffic across all clients. The public
	// Nominatim policy allows one request per second from an application.
	UpstreamRateLimit = RateLimitConfig{
		RequestLimit: 60,
		WindowLength: time.Minute,
	}

	// StandardRateLimit applies per client to metadata endpoints.
	StandardRateLimit = RateLimitConfig{
		RequestLimit: 100,
		WindowLength: time.Minute,
	}
)

// RateLimitByIP limits each client address, as resolved by chi's RealIP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return cfg.limiter(httprate.KeyByRealIP)
}

// RateLimitGlobal shares one budget between every caller of the wrapped routes.
func RateLimitGlobal(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return cfg.limiter(func(*http.Request) (string, error) { return "global", nil })
}

func (cfg RateLimitConfig) limiter(key httprate.KeyFunc) func(http.Handler) http.Handler {
	// httprate does not expose the exact reset time; the window is an upper bound.
	retryAfter := strconv.Itoa(int(cfg.WindowLength / time.Second))
	exceeded := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.NewError(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.").
			Write(w, http.StatusTooManyRequests)
	}
	return httprate.Limit(cfg.RequestLimit, cfg.WindowLength,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(exceeded),
	)
}
