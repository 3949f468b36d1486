// Package webfetch performs HTTP requests with an ordered proxy fallback.
// A request is always attempted directly first; only a transport-level
// failure (no HTTP status observed) moves it onto the public relay chain,
// mirroring how a blocked cross-origin call looks from a browser page. A
// response that arrived, whatever its status, is the caller's to interpret.
package webfetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// errTooManyRedirects marks a redirect chain that exceeded the configured
// limit. It is a policy refusal, not a connectivity failure, so it never
// triggers proxy fallback.
var errTooManyRedirects = errors.New("too many redirects")

// Response is the outcome of a successful exchange. Via records which route
// served it: "direct" or the name of a proxy descriptor.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Via        string
}

// Success reports whether the status code is in the 2xx range.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RequestOptions carries the request shape. The zero value is a plain GET.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte

	// Authenticated marks a request carrying credentials. Such requests are
	// never routed through third-party proxies; a direct transport failure
	// surfaces an actionable error instead of falling back.
	Authenticated bool
}

// Client issues direct-then-proxied HTTP requests.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// NewClient creates a fetch client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("webfetch config: %w", err)
	}
	return &Client{cfg: cfg, httpClient: newHTTPClient(cfg)}, nil
}

// newHTTPClient builds the transport shared by every route. Pool sizes are
// modest; a run talks to a handful of origins, not a crawl frontier.
func newHTTPClient(cfg Config) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     time.Minute,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, chain []*http.Request) error {
			if len(chain) >= cfg.RedirectLimit {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
			}
			return nil
		},
	}
}

// Fetch requests the target URL. The direct response, whatever its status,
// is returned as-is; only a transport-level failure consistent with a
// blocked origin engages the proxy chain, in declared order, first 2xx wins.
// Errors of a different nature (cancellation, redirect refusal, malformed
// input) propagate immediately with zero proxies contacted. When the whole
// chain fails, the returned error names every route tried and wraps the last
// underlying failure.
func (c *Client) Fetch(ctx context.Context, target string, opts RequestOptions) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch aborted: %w", err)
	}
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, target, opts)
	if err == nil {
		resp.Via = "direct"
		return resp, nil
	}

	if !c.isTransportFailure(ctx, err) {
		return nil, err
	}

	if opts.Authenticated {
		return nil, fmt.Errorf(
			"direct request to %s failed and authenticated requests are never sent through public proxies; "+
				"allow direct access from this host to the API origin (CORS or firewall rules), then retry: %w",
			target, err)
	}

	return c.fetchViaProxies(ctx, target, opts, err)
}

func (c *Client) fetchViaProxies(ctx context.Context, target string, opts RequestOptions, directErr error) (*Response, error) {
	chainErr := directErr
	tried := make([]string, 0, len(c.cfg.Proxies)+1)
	tried = append(tried, "direct")

	// Credentials must never transit a third-party relay.
	proxied := opts
	if proxied.Header.Get("Authorization") != "" {
		proxied.Header = proxied.Header.Clone()
		proxied.Header.Del("Authorization")
	}

	for _, proxy := range c.cfg.Proxies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch aborted: %w", err)
		}
		tried = append(tried, proxy.Name)

		resp, err := c.do(ctx, proxy.BuildURL(target), proxied)
		if err != nil {
			slog.Warn("proxy attempt failed", slog.String("proxy", proxy.Name),
				slog.String("target", target), slog.Any("error", err))
			chainErr = err
			continue
		}
		if resp.Success() {
			slog.Info("proxy fallback succeeded", slog.String("proxy", proxy.Name),
				slog.String("target", target))
			resp.Via = proxy.Name
			return resp, nil
		}

		chainErr = fmt.Errorf("proxy %s returned status %d", proxy.Name, resp.StatusCode)
	}

	return nil, fmt.Errorf("all routes failed for %s (tried %s): %w",
		target, strings.Join(tried, ", "), chainErr)
}

func (c *Client) do(ctx context.Context, target string, opts RequestOptions) (*Response, error) {
	verb := opts.Method
	if verb == "" {
		verb = http.MethodGet
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, verb, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range opts.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("User-Agent") == "" && c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.BodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: data}, nil
}

// isTransportFailure reports whether an error from the direct attempt is the
// kind of connectivity failure (no HTTP status observed) that the proxy chain
// can plausibly work around. Cancellation of the caller's context and
// redirect-policy refusals are deliberate outcomes, not blocked routes.
func (c *Client) isTransportFailure(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, errTooManyRedirects) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func validateTarget(target string) error {
	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid target URL %q: scheme must be http or https", target)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid target URL %q: missing host", target)
	}
	return nil
}
