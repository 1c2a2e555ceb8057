// Package httpclient is the transport for remote catalog sources: plain GET
// with a request rate limit, TTL file caching and conditional revalidation.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/everstacklabs/atlas/internal/cache"
)

// Client fetches catalog payloads.
type Client struct {
	http    *http.Client
	cache   *cache.FileCache
	limiter *rate.Limiter
}

// Option configures the Client.
type Option func(*Client)

// WithCache enables file-based caching of responses.
func WithCache(c *cache.FileCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) { cl.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url, serving from cache when fresh and revalidating with
// ETag/If-Modified-Since when stale.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var stale *cache.Entry
	if c.cache != nil {
		entry, fresh := c.cache.Get(url)
		if fresh {
			return entry.Body, nil
		}
		stale = entry
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if stale != nil {
		if stale.ETag != "" {
			req.Header.Set("If-None-Match", stale.ETag)
		}
		if stale.LastMod != "" {
			req.Header.Set("If-Modified-Since", stale.LastMod)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && stale != nil {
		_ = c.cache.Set(url, stale) // refresh TTL
		return stale.Body, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	if c.cache != nil {
		_ = c.cache.Set(url, &cache.Entry{
			Body:    body,
			ETag:    resp.Header.Get("ETag"),
			LastMod: resp.Header.Get("Last-Modified"),
		})
	}
	return body, nil
}
