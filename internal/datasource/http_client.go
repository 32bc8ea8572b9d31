package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/prop-edge/internal/metrics"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Name              string
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	Burst             int
	CircuitBreakerMax int // max consecutive failures before circuit break
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig(name string) HTTPClientConfig {
	return HTTPClientConfig{
		Name:              name,
		Timeout:           15 * time.Second,
		MaxRetries:        2,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         2.0,
		Burst:             4,
		CircuitBreakerMax: 5,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker
type RateLimitedHTTPClient struct {
	name              string
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	onTrip            func(source string, failures int)
	logger            *logrus.Entry

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Logger) *RateLimitedHTTPClient {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	entry := logger.WithField("source", cfg.Name)

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	// Hand the final response back so callers can map status codes
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = retryLogger{entry: entry}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	breakerMax := cfg.CircuitBreakerMax
	if breakerMax < 1 {
		breakerMax = 1
	}

	return &RateLimitedHTTPClient{
		name:              cfg.Name,
		client:            retryClient,
		limiter:           rate.NewLimiter(limit, burst),
		circuitBreakerMax: breakerMax,
		logger:            entry,
	}
}

// OnCircuitTrip registers a callback invoked when the breaker opens
func (c *RateLimitedHTTPClient) OnCircuitTrip(fn func(source string, failures int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrip = fn
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Check circuit breaker status
	c.mu.Lock()
	if c.isOpen {
		lastErr := c.lastError
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, lastErr)
	}
	c.mu.Unlock()

	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.client.Do(retryReq.WithContext(ctx))
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordSourceRequest(c.name, "error", elapsed)
		c.recordFailure(err)
		return nil, err
	}
	metrics.RecordSourceRequest(c.name, statusClass(resp.StatusCode), elapsed)

	// Reset circuit breaker on success
	if resp.StatusCode < 500 {
		c.mu.Lock()
		c.consecutiveErrors = 0
		c.isOpen = false
		c.mu.Unlock()
	} else {
		c.recordFailure(fmt.Errorf("status %d", resp.StatusCode))
	}

	return resp, nil
}

func (c *RateLimitedHTTPClient) recordFailure(err error) {
	c.mu.Lock()
	c.consecutiveErrors++
	c.lastError = err
	tripped := !c.isOpen && c.consecutiveErrors >= c.circuitBreakerMax
	if tripped {
		c.isOpen = true
	}
	failures := c.consecutiveErrors
	onTrip := c.onTrip
	c.mu.Unlock()

	if tripped {
		c.logger.WithError(err).Warnf("Circuit breaker opened after %d consecutive errors", failures)
		metrics.RecordCircuitBreakerTrip(c.name)
		if onTrip != nil {
			onTrip(c.name, failures)
		}
	}
}

// IsOpen reports whether the circuit breaker is open
func (c *RateLimitedHTTPClient) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

// Reset closes the circuit breaker
func (c *RateLimitedHTTPClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveErrors = 0
	c.isOpen = false
	c.lastError = nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// retryLogger keeps per-attempt retry chatter at debug level
type retryLogger struct {
	entry *logrus.Entry
}

func (l retryLogger) Printf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			// Retry on network errors
			return true, err
		}

		// Retry on server errors; 429 from the odds API means the plan quota is spent
		switch resp.StatusCode {
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}

		return false, nil
	}
}
