package http

import (
	"net/http"

	"contentforge/internal/handler/http/respond"
)

// Request input ceilings. Real bearer tokens and API paths sit far below
// these; the headroom covers forwarded JWTs and long topic slugs.
const (
	maxAuthHeaderBytes = 8 << 10
	maxPathBytes       = 2 << 10
	maxInputBodyBytes  = 10 << 20
)

// RequestLimits returns middleware that rejects requests whose header or
// path sizes fall outside any reasonable range before routing sees them.
// The body is not read here; MaxBytesReader makes it fail on the first read
// past the cap instead.
func RequestLimits() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.Header.Get("Authorization")) > maxAuthHeaderBytes {
				respond.Write(w, http.StatusBadRequest, map[string]string{"error": "authorization header too large"})
				return
			}

			if len(r.URL.Path) > maxPathBytes {
				respond.Write(w, http.StatusRequestURITooLong, map[string]string{"error": "URI too long"})
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxInputBodyBytes)
			next.ServeHTTP(w, r)
		})
	}
}
