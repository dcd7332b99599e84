// Package api is the HTTP client for the store backend's REST API.
//
// Idempotent reads are retried with exponential backoff. All calls pass
// through a circuit breaker so a dead backend fails fast instead of
// stacking up timeouts.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/wicket/internal/telemetry"
)

// userAgent identifies this client to the backend.
const userAgent = "wicket/1.0"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// TokenFunc returns the bearer token for the current session, or "".
type TokenFunc func() string

// Config holds client configuration.
type Config struct {
	BaseURL string

	// Timeout of zero leaves the http.Client without a client-side timeout.
	Timeout time.Duration

	// HTTPClient overrides the default client. Its transport is still
	// wrapped for tracing.
	HTTPClient *http.Client

	Token   TokenFunc
	Logger  *slog.Logger
	Metrics *telemetry.BusinessMetrics

	// RetryBase is the first backoff for GET retries (default 200ms).
	RetryBase time.Duration
	// MaxRetries bounds GET retries (default 2). Zero means the default;
	// use a negative value to disable retries.
	MaxRetries int

	// BreakerFailures is the number of consecutive failures that opens the
	// breaker (default 5). BreakerCooldown is how long it stays open
	// (default 30s).
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client talks to the store backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	logger     *slog.Logger
	metrics    *telemetry.BusinessMetrics

	breaker    *gobreaker.CircuitBreaker[[]byte]
	retryBase  time.Duration
	maxRetries uint64
	noRetry    bool

	products singleflight.Group
}

// New creates a client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "api"))

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	} else {
		cp := *httpClient
		httpClient = &cp
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = otelhttp.NewTransport(&telemetry.HTTPTransport{Transport: base})

	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}
	maxRetries := uint64(2)
	if cfg.MaxRetries > 0 {
		maxRetries = uint64(cfg.MaxRetries)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	token := cfg.Token
	if token == nil {
		token = func() string { return "" }
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		metrics:    cfg.Metrics,
		retryBase:  retryBase,
		maxRetries: maxRetries,
		noRetry:    cfg.MaxRetries < 0,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "store-api",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Client errors are the caller's fault, not the backend's.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var re *ResponseError
			return errors.As(err, &re) && !re.Temporary()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return c, nil
}

// request describes one backend call.
type request struct {
	method string
	path   string
	// route is the templated path used as a metrics label.
	route   string
	body    any
	headers map[string]string
}

// do sends req and decodes a 2xx JSON body into out (if non-nil).
// GETs are retried on transport errors and 5xx responses.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		payload = b
	}

	attempt := func(ctx context.Context) ([]byte, error) {
		return c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(ctx, req, payload)
		})
	}

	var body []byte
	var err error
	if req.method == http.MethodGet && !c.noRetry {
		backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			b, err := attempt(ctx)
			if err != nil {
				if retryable(err) {
					c.logger.Debug("retrying request",
						slog.String("method", req.method),
						slog.String("path", req.path),
						slog.String("error", err.Error()),
					)
					return retry.RetryableError(err)
				}
				return err
			}
			body = b
			return nil
		})
	} else {
		body, err = attempt(ctx)
	}

	if err != nil {
		if breakerOpen(err) {
			return fmt.Errorf("%s %s: %w", req.method, req.path, ErrUnavailable)
		}
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response from %s %s: %w", req.method, req.path, err)
	}
	return nil
}

// roundTrip performs a single HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, req request, payload []byte) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveAPI(req.method, req.route, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.ObserveAPI(req.method, req.route, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(req.method, req.path, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// retryable reports whether a failed GET is worth repeating.
func retryable(err error) bool {
	if breakerOpen(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Temporary()
	}
	// transport failure
	return true
}
