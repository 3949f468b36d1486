package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// CORSPolicy holds the cross-origin policy for the wizard frontend.
//
// The wizard runs as a separate local app (usually http://localhost:5173),
// so every API call is cross-origin and the browser enforces this policy.
type CORSPolicy struct {
	AllowedOrigins   []string // permitted origins, lowercase, no trailing slash
	AllowedMethods   []string // methods allowed cross-origin
	AllowedHeaders   []string // request headers allowed cross-origin
	AllowCredentials bool     // required for the Authorization header to pass
	MaxAge           int      // preflight cache lifetime in seconds

	// Log records policy violations and preflight requests. May be nil.
	Log *slog.Logger
}

// NewCORSPolicy validates the configured origins and builds a CORSPolicy
// with default methods, headers, and preflight cache duration.
//
// Validation is fail-closed: an empty origin list or a malformed origin is
// a configuration error, not a permissive fallback.
//
// Each origin must:
//   - use the http or https scheme
//   - not include a path, query string, or fragment
//   - not have a trailing slash
func NewCORSPolicy(allowedOrigins []string) (*CORSPolicy, error) {
	allowed := make([]string, 0, len(allowedOrigins))
	for _, raw := range allowedOrigins {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := checkOrigin(raw); err != nil {
			return nil, err
		}
		allowed = append(allowed, strings.ToLower(raw))
	}

	if len(allowed) == 0 {
		return nil, errors.New("at least one allowed origin must be configured")
	}

	p := &CORSPolicy{AllowedOrigins: allowed}
	p.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	p.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	p.AllowCredentials = true
	p.MaxAge = 86400 // 24時間
	return p, nil
}

// checkOrigin rejects anything but a bare http(s) origin.
func checkOrigin(origin string) error {
	u, err := url.Parse(origin)
	switch {
	case err != nil:
		return fmt.Errorf("invalid origin URL '%s': %w", origin, err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("origin must use http or https scheme: %s", origin)
	case u.Path != "" && u.Path != "/":
		return fmt.Errorf("origin must not include path: %s", origin)
	case u.RawQuery != "":
		return fmt.Errorf("origin must not include query string: %s", origin)
	case u.Fragment != "":
		return fmt.Errorf("origin must not include fragment: %s", origin)
	case strings.HasSuffix(origin, "/"):
		return fmt.Errorf("origin must not have trailing slash: %s", origin)
	}
	return nil
}

// originAllowed reports whether o is in the whitelist.
// Comparison is case-insensitive and ignores trailing slashes.
func (p *CORSPolicy) originAllowed(o string) bool {
	o = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
	if o == "" {
		return false
	}
	return slices.Contains(p.AllowedOrigins, o)
}

// CORS returns middleware that handles cross-origin requests from the wizard.
//
// Behavior:
//   - If the Origin header is empty, skip CORS processing (same-origin request)
//   - If the origin is not allowed, log a warning and continue without CORS
//     headers; the browser blocks the response
//   - If the origin is allowed, echo it back, set Allow-Credentials, and pass
//     through; a preflight OPTIONS request instead gets the policy headers and
//     a 204 without reaching the next handler
func CORS(p *CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orig := r.Header.Get("Origin")
			if orig == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !p.originAllowed(orig) {
				if p.Log != nil {
					p.Log.Warn("CORS: origin not allowed",
						slog.String("origin", orig), slog.String("path", r.URL.Path),
						slog.String("method", r.Method), slog.String("remote_addr", r.RemoteAddr))
				}
				next.ServeHTTP(w, r)
				return
			}

			// Echo back the request origin (required for credentials)
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", orig)
			if p.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Methods", strings.Join(p.AllowedMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(p.AllowedHeaders, ", "))
			h.Set("Access-Control-Max-Age", strconv.Itoa(p.MaxAge))

			if p.Log != nil {
				p.Log.Debug("CORS: preflight request",
					slog.String("origin", orig),
					slog.String("requested_method", r.Header.Get("Access-Control-Request-Method")),
					slog.String("requested_headers", r.Header.Get("Access-Control-Request-Headers")))
			}

			w.WriteHeader(http.StatusNoContent)
		})
	}
}
