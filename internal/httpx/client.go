// Package httpx is the single outbound HTTP path for provider adapters.
// It wraps net/http with a shared rate limiter and lets configuration swap
// the live transport for a fixture-replay transport, so adapters never know
// whether they are talking to the real marketplace or a recording.
package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "dmt-adk-estate/1.0 (+https://github.com/Adebesin-Cell/dmt-adk-estate)"

// Client is a rate-limited HTTP client for provider traffic.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the underlying transport. Used to run against
// recorded fixtures instead of the live network.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// WithRateLimit caps outbound requests per second across all hosts.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a Client with the given per-request timeout. Without
// WithRateLimit the client sends at 5 req/s, which keeps a full five-provider
// fan-out polite toward any single marketplace.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(5), 5),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do waits for rate-limiter admission, then executes the request. The
// request context governs both the wait and the round trip.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.http.Do(req)
}

// Get issues a GET with optional headers and returns the body and status.
// Network failures return an error; non-2xx statuses do not, callers decide
// how a bad status degrades.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	return c.send(req, headers)
}

// Post issues a POST with the given body and returns the response body and
// status.
func (c *Client) Post(ctx context.Context, url string, body io.Reader, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, 0, err
	}
	return c.send(req, headers)
}

func (c *Client) send(req *http.Request, headers map[string]string) ([]byte, int, error) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	const maxResponseBytes = 10 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
