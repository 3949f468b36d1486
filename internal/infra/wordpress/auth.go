package wordpress

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthProvider yields the Authorization header value for CMS requests.
// Implementations may fail when the credential is no longer usable, which
// aborts the call before any request is sent.
type AuthProvider interface {
	// Authorize returns the Authorization header value, e.g. "Basic ..." or
	// "Bearer ...".
	Authorize() (string, error)

	// Name identifies the scheme for logging ("application-password", "jwt").
	Name() string
}

// AppPasswordAuth authenticates with a WordPress Application Password.
// Application Passwords are the supported way to grant API access to a
// script without sharing the account password.
type AppPasswordAuth struct {
	Username string
	Password string
}

// NewAppPasswordAuth creates an Application Password provider.
func NewAppPasswordAuth(username, password string) *AppPasswordAuth {
	return &AppPasswordAuth{Username: username, Password: password}
}

// Authorize implements AuthProvider. It never fails; a wrong credential
// surfaces as a 401 from the API instead.
func (a *AppPasswordAuth) Authorize() (string, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	return "Basic " + credentials, nil
}

// Name implements AuthProvider.
func (a *AppPasswordAuth) Name() string {
	return "application-password"
}

// JWTAuth authenticates with a bearer token issued by a JWT auth plugin.
// The token's expiry is checked client-side before every request: sending a
// request with a dead token wastes a round trip and produces a less
// actionable 403 from the plugin.
type JWTAuth struct {
	Token string

	// now is swappable for tests.
	now func() time.Time
}

// NewJWTAuth creates a JWT bearer provider.
func NewJWTAuth(token string) *JWTAuth {
	return &JWTAuth{Token: token, now: time.Now}
}

// Authorize implements AuthProvider. The token signature is NOT verified
// here; the site verifies it. Only the expiry claim is inspected, so an
// expired session fails fast with ErrSessionExpired.
func (a *JWTAuth) Authorize() (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(a.Token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("parse jwt token: %w", err)
	}

	expiry, err := token.Claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("read jwt expiry claim: %w", err)
	}
	if expiry != nil && a.now().After(expiry.Time) {
		return "", ErrSessionExpired
	}

	return "Bearer " + a.Token, nil
}

// Name implements AuthProvider.
func (a *JWTAuth) Name() string {
	return "jwt"
}

// SelectAuth picks the provider for the supplied credentials. The
// Application Password pair wins when both it and a JWT are present; with
// neither the result is nil, meaning anonymous access.
func SelectAuth(username, appPassword, jwtToken string) AuthProvider {
	if username != "" && appPassword != "" {
		return NewAppPasswordAuth(username, appPassword)
	}
	if jwtToken != "" {
		return NewJWTAuth(jwtToken)
	}
	return nil
}
