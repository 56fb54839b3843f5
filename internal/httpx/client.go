// Package httpx wraps outbound HTTP calls with bounded retry, exponential
// backoff, and per-host rate limiting. Every external service call in the
// engine funnels through one Client so the retry policy stays out of the
// business logic.
package httpx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"walkroute/internal/metrics"
)

// Transient server statuses that trigger an automatic retry. Everything
// else (including 4xx) is surfaced unchanged.
var retryStatus = map[int]bool{
	http.StatusBadGateway:     true, // 502
	http.StatusGatewayTimeout: true, // 504
	522:                       true, // Cloudflare: connection timed out
	524:                       true, // Cloudflare: a timeout occurred
}

// Client is a retry-aware HTTP client. The zero value is not usable; use New.
type Client struct {
	HTTP       *http.Client
	MaxRetries int
	Backoff    time.Duration // first retry delay; doubles per attempt
	UserAgent  string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New returns a Client with the given request timeout and retry budget.
func New(timeout time.Duration, maxRetries int, userAgent string) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		MaxRetries: maxRetries,
		Backoff:    time.Second,
		UserAgent:  userAgent,
		limiters:   map[string]*rate.Limiter{},
	}
}

// Limit installs a rate limiter for all requests to host (e.g. the 1 req/s
// Nominatim usage policy). Requests to other hosts are not limited.
func (c *Client) Limit(host string, rps float64) {
	c.mu.Lock()
	c.limiters[host] = rate.NewLimiter(rate.Limit(rps), 1)
	c.mu.Unlock()
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limiters[host]
}

// Get issues a GET with query parameters appended to rawurl.
func (c *Client) Get(ctx context.Context, rawurl string, params url.Values) (*http.Response, error) {
	if len(params) > 0 {
		rawurl = rawurl + "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, rawurl, "", nil)
}

// PostForm issues an application/x-www-form-urlencoded POST.
func (c *Client) PostForm(ctx context.Context, rawurl string, data url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, rawurl, "application/x-www-form-urlencoded", []byte(data.Encode()))
}

// PostJSON issues an application/json POST with the given raw body.
func (c *Client) PostJSON(ctx context.Context, rawurl string, body []byte) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, rawurl, "application/json", body)
}

// do runs the request, retrying transient server statuses up to MaxRetries
// times with exponential backoff. The body is replayed on each attempt.
func (c *Client) do(ctx context.Context, method, rawurl, contentType string, body []byte) (*http.Response, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	lim := c.limiter(u.Host)

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return nil, err
			}
		}
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawurl, rd)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}
		resp, err = c.HTTP.Do(req)
		if err != nil {
			// Network errors and timeouts are not retried here; callers
			// treat them as a missing result for the current tier.
			return nil, err
		}
		if !retryStatus[resp.StatusCode] || attempt >= c.MaxRetries {
			return resp, nil
		}
		// Transient server error: drain, back off, retry.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		metrics.HTTPRetries.WithLabelValues(u.Host).Inc()
		select {
		case <-time.After(nextBackoff(c.Backoff, attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// nextBackoff returns base << attempt, capped at one minute.
func nextBackoff(base time.Duration, attempt int) time.Duration {
	if attempt > 10 {
		attempt = 10
	}
	d := base * time.Duration(1<<attempt)
	if d > time.Minute {
		d = time.Minute
	}
	return d
}
