// Package fetch downloads table CSV exports from the wow.tools export endpoint.
package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/nan-gameware/wowdb/internal/metrics"
	"github.com/nan-gameware/wowdb/internal/ratelimit"
)

// DefaultURL is the public export endpoint.
const DefaultURL = "https://wow.tools/api/export/"

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client downloads table exports into a local directory.
type Client struct {
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
	logger      *slog.Logger
	metrics     *metrics.Recorder
	retries     int
	timeout     time.Duration
}

// NewClient creates an export client. Without options it talks to DefaultURL,
// never retries and never times out.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = c.newRetryingClient()
	}
	return c
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets the export endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithHTTPClient replaces the retrying transport with c.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithRateLimiter paces downloads.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.rateLimiter = l
	}
}

// WithLogger sets the logger used for download progress and retries.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records download outcomes.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// WithRetries sets how many times a failed download is retried.
// 404 responses are never retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithTimeout bounds each HTTP attempt. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func (c *Client) newRetryingClient() *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = c.retries
	rc.Logger = c.logger
	rc.CheckRetry = checkRetry
	// Hand the last response back so its status can be inspected.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = c.timeout
	return rc.StandardClient()
}

// checkRetry follows the library policy except that a missing table is final.
// Status-only failures carry no error so the response reaches the caller.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if err == nil && ctx.Err() == nil {
		return retry, nil
	}
	return retry, checkErr
}
