package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without contacting the upstream while its
// breaker is open or already probing.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig configures a Client. Zero durations take the defaults;
// MaxRetries is used as given, so zero means a single attempt.
type ClientConfig struct {
	// Name keys the breaker, the registry entry and the metric attributes.
	Name string

	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// UserAgent is set on requests that carry none. The public
	// OpenStreetMap servers reject anonymous clients.
	UserAgent string

	// CircuitBreaker overrides DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	Registry *Registry
	Metrics  *ProviderMetrics
}

// Defaults applied by NewClient.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 100 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
)

// DefaultClientConfig returns the configuration used for both providers.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         DefaultTimeout,
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		CircuitBreaker:  &cb,
	}
}

// Client is an http.Client behind a circuit breaker with bounded,
// exponentially spaced retries on 5xx responses and transport errors.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient builds a Client and, when cfg.Registry is set, registers it and
// routes breaker transitions to the registry and metrics.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}

	cb := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cb = *cfg.CircuitBreaker
	}
	hook := cb.OnStateChange
	cb.OnStateChange = func(breaker string, from, to gobreaker.State) {
		log.Warn().
			Str("provider", cfg.Name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
		cfg.Metrics.RecordStateChange(cfg.Name, to)
		if cfg.Registry != nil {
			cfg.Registry.RecordStateChange(cfg.Name, from, to)
		}
		if hook != nil {
			hook(breaker, from, to)
		}
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: NewCircuitBreaker[*http.Response](cb), //nolint:bodyclose // type param, not a response
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}
	return c
}

// Name returns the provider name the client was built for.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Do sends req, retrying on 5xx and transport errors. A 5xx that survives
// every retry is returned as a response, not an error, so callers map it
// the same way as any other status. ErrCircuitOpen is returned when the
// breaker rejects the call before any response was received.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	if c.cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	var last *http.Response
	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to the caller
			return c.send(ctx, req)
		})
		if resp != nil {
			discard(last)
			last = resp
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("provider", c.cfg.Name).Dur("wait", wait).Msg("retrying provider request")
	}

	err := backoff.RetryNotify(attempt, c.policy(ctx), notify)
	switch {
	case err != nil && last != nil:
		c.record(start, &ServerError{StatusCode: last.StatusCode})
		return last, nil
	case err != nil:
		c.record(start, err)
		return nil, err
	case last.StatusCode == http.StatusTooManyRequests:
		c.record(start, fmt.Errorf("upstream rate limited: %s", last.Status))
		return last, nil
	default:
		c.record(start, nil)
		return last, nil
	}
}

// send performs one attempt. A 5xx is reported to the breaker as a failure
// while the response itself is kept for the caller.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req.Clone(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return resp, &ServerError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)
}

// record reports one logical call. Cancellation by the caller says nothing
// about the upstream and is kept out of the registry.
func (c *Client) record(start time.Time, err error) {
	c.cfg.Metrics.RecordRequest(c.cfg.Name, time.Since(start), err)
	switch {
	case c.cfg.Registry == nil, errors.Is(err, context.Canceled):
	case err != nil:
		c.cfg.Registry.RecordFailure(c.cfg.Name, err)
	default:
		c.cfg.Registry.RecordSuccess(c.cfg.Name)
	}
}

// discard drains and closes a superseded response so its connection can be reused.
func discard(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// ServerError is an upstream 5xx.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// CircuitBreakerState returns the breaker's current state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the breaker's counts for the current window.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}
