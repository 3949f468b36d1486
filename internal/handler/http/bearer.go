package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"contentforge/internal/handler/http/respond"
)

// BearerAuth returns middleware that requires a static bearer token on every
// request. The token comes from configuration; there are no user accounts.
// When token is empty the middleware is a no-op, which is the expected mode
// for local single-user setups.
//
// Comparison uses constant-time equality so the token cannot be probed
// byte by byte through response timing.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		expected := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="contentforge"`)
				respond.Fail(w, http.StatusUnauthorized, fmt.Errorf("authorization required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const scheme = "Bearer "
	if len(auth) <= len(scheme) || !strings.EqualFold(auth[:len(scheme)], scheme) {
		return "", false
	}
	return auth[len(scheme):], true
}
