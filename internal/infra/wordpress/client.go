// Package wordpress is a REST client for the WordPress wp/v2 API, covering
// the operations the content pipeline needs: connection validation, post and
// term listing, and draft publication. Requests ride on the multi-route fetch
// client; authenticated calls stay on the direct route while anonymous reads
// may fall back across the proxy chain.
package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"contentforge/internal/domain/entity"
	"contentforge/internal/observability/metrics"
	"contentforge/internal/resilience/circuitbreaker"
	"contentforge/internal/resilience/retry"
	"contentforge/internal/webfetch"
)

// Fetcher retrieves one document, falling back across routes as needed.
// *webfetch.Client satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, target string, opts webfetch.RequestOptions) (*webfetch.Response, error)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the site root, e.g. "https://example.com". The wp-json
	// prefix is appended by the client.
	BaseURL string

	// Auth provides credentials for write operations. nil means anonymous
	// access: reads work against public sites, writes fail with a 401.
	Auth AuthProvider

	// RequestsPerSecond paces requests against the site. Default: 2.
	RequestsPerSecond float64

	// Burst is the pacing burst capacity. Default: 3.
	Burst int
}

// Client talks to one WordPress site.
type Client struct {
	fetcher Fetcher
	baseURL string
	auth    AuthProvider
	pacer   *rate.Limiter
	breaker *circuitbreaker.Breaker
	backoff retry.Config
}

// NewClient creates a WordPress client over the given fetcher.
func NewClient(fetcher Fetcher, cfg Config) (*Client, error) {
	if err := entity.ValidateURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("wordpress base url: %w", err)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 3
	}

	c := &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    cfg.Auth,
		pacer:   rate.NewLimiter(rate.Limit(rps), burst),
		breaker: circuitbreaker.New(circuitbreaker.CMSConfig()),
		backoff: retry.PublishConfig(),
	}
	return c, nil
}

// Authenticated reports whether the client carries credentials.
func (c *Client) Authenticated() bool {
	return c.auth != nil
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *Client) Breaker() *circuitbreaker.Breaker {
	return c.breaker
}

// execute runs one named API operation through the circuit breaker and the
// retry wrapper. An expired session is checked first: it cannot heal within
// a call, so it bypasses both layers.
func (c *Client) execute(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	if c.auth != nil {
		if _, err := c.auth.Authorize(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var result interface{}
	err := retry.Do(ctx, c.backoff, func() error {
		got, err := c.guarded(op, fn)
		if err != nil {
			return err
		}
		result = got
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s failed after retries: %w", op, err)
	}
	return result, nil
}

// guarded routes one call through the breaker, turning an open breaker into
// an operator-readable rejection instead of a bare sentinel.
func (c *Client) guarded(op string, fn func() (interface{}, error)) (interface{}, error) {
	got, err := c.breaker.Execute(fn)
	if err == nil {
		return got, nil
	}
	if circuitbreaker.Rejected(err) {
		slog.Warn("cms api circuit breaker open, request rejected", slog.String("operation", op),
			slog.String("state", c.breaker.State().String()))
		return nil, errors.New("cms api unavailable: circuit breaker open")
	}
	return nil, err
}

// doRequest performs one paced HTTP exchange and classifies the status.
// A returned error is either a transport failure from the fetch layer or a
// typed API error; the response is only returned for 2xx statuses.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) (*webfetch.Response, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request pacing: %w", err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	opts := webfetch.RequestOptions{Method: method, Header: http.Header{}}
	opts.Header.Set("Accept", "application/json")

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request payload: %w", err)
		}
		opts.Body = body
		opts.Header.Set("Content-Type", "application/json")
	}

	if c.auth != nil {
		header, err := c.auth.Authorize()
		if err != nil {
			return nil, err
		}
		opts.Header.Set("Authorization", header)
		opts.Authenticated = true
	}

	began := time.Now()
	resp, err := c.fetcher.Fetch(ctx, target, opts)
	took := time.Since(began)

	if err != nil {
		route := "chain"
		if opts.Authenticated {
			route = "direct"
		}
		metrics.RecordFetchFailed(route, took)
		return nil, err
	}

	metrics.RecordFetchSuccess(resp.Via, took, len(resp.Body))

	if !resp.Success() {
		return nil, classifyStatus(resp.StatusCode, resp.Header, resp.Body)
	}
	return resp, nil
}

// decode unmarshals a response body, naming the operation in the error.
func decode(op string, resp *webfetch.Response, out interface{}) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
