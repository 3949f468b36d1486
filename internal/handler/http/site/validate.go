// Package site exposes the connection check the wizard runs before anything
// else: is the URL a reachable WordPress site, and do the credentials work.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contentforge/internal/handler/http/respond"
	"contentforge/internal/infra/wordpress"
	"contentforge/internal/observability/logging"
)

// Checker validates connectivity against one CMS site.
// *wordpress.Client satisfies this.
type Checker interface {
	ValidateConnection(ctx context.Context) (*wordpress.SiteInfo, error)
	Authenticated() bool
}

// ConnectFunc builds a checker for the credentials one request submitted.
type ConnectFunc func(req ConnectionRequest) (Checker, error)

// NewConnector returns the production ConnectFunc, building a WordPress
// client over the given fetcher per request.
func NewConnector(fetcher wordpress.Fetcher) ConnectFunc {
	return func(req ConnectionRequest) (Checker, error) {
		return wordpress.NewClient(fetcher, wordpress.Config{
			BaseURL: req.BaseURL,
			Auth:    wordpress.SelectAuth(req.Username, req.AppPassword, req.JWTToken),
		})
	}
}

// ValidateHandler checks a site connection with the credentials from the
// request body. Failures come back as a structured response so the wizard
// can show what went wrong, not as a bare error envelope.
type ValidateHandler struct{ Connect ConnectFunc }

func (h ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.BaseURL == "" {
		respond.Fail(w, http.StatusBadRequest, errors.New("base_url required"))
		return
	}

	checker, err := h.Connect(req)
	if err != nil {
		respond.Write(w, http.StatusBadRequest, ConnectionResponse{Error: err.Error()})
		return
	}

	info, err := checker.ValidateConnection(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn("connection check failed",
			slog.String("base_url", req.BaseURL),
			slog.Any("error", err))
		respond.Write(w, statusForCheckError(err), ConnectionResponse{
			Authenticated: checker.Authenticated(),
			Error:         err.Error(),
		})
		return
	}

	respond.Write(w, http.StatusOK, ConnectionResponse{
		Valid:         true,
		Authenticated: checker.Authenticated(),
		Site:          siteDTO(info),
	})
}

// statusForCheckError maps client errors onto the statuses the wizard keys
// its hints off: 401 means fix the credentials, 429 means slow down,
// anything else upstream is a 502.
func statusForCheckError(err error) int {
	var throttled *wordpress.ThrottleError
	var reqErr *wordpress.RequestError

	switch {
	case errors.As(err, &throttled):
		return http.StatusTooManyRequests
	case errors.As(err, &reqErr):
		if reqErr.Status == http.StatusUnauthorized || reqErr.Status == http.StatusForbidden {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case errors.Is(err, wordpress.ErrSessionExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// Register registers the connection check endpoint with the given mux.
func Register(mux *http.ServeMux, connect ConnectFunc) {
	mux.Handle("POST /api/connection/validate", ValidateHandler{Connect: connect})
}
