// Package http provides the wizard-facing HTTP layer: request handlers for
// connection checks, topic discovery, and generation runs, plus health
// endpoints, metrics collection, and middleware.
package http

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"contentforge/internal/handler/http/respond"
	"contentforge/internal/resilience/circuitbreaker"
)

// Statuses reported per check and for the service overall, ordered by
// severity.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// severityRank orders statuses; anything unknown ranks as healthy.
var severityRank = map[string]int{statusDegraded: 1, statusUnhealthy: 2}

// worseOf picks the more severe of two statuses.
func worseOf(a, b string) string {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// HealthReport is the JSON body of the health endpoint.
type HealthReport struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckResult reports one named health check.
type CheckResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Health serves the health endpoint and the Kubernetes probes. The report
// says how the service is configured and the state of its upstream circuit
// breakers, so an operator can tell "the site is down" from "the service is
// down".
type Health struct {
	Version string // reported verbatim in the health body

	// CMS connection as configured at startup. Unconfigured is not a
	// failure: connection settings can also come from the wizard per
	// request.
	CMSConfigured    bool
	CMSAuthenticated bool

	// Provider is the active draft generation provider.
	Provider string

	// Breakers are the upstream circuit breakers to report. An open
	// breaker degrades the status but does not fail it; the service keeps
	// serving while the upstream recovers.
	Breakers []*circuitbreaker.Breaker
}

// ServeHTTP returns the application health status. 200 OK covers both
// healthy and degraded; 503 Service Unavailable means the service cannot do
// useful work at all.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]CheckResult{
		"cms":       h.checkCMS(),
		"generator": h.checkGenerator(),
	}
	if len(h.Breakers) > 0 {
		checks["circuit_breakers"] = h.checkBreakers()
	}

	overall := statusHealthy
	for _, check := range checks {
		overall = worseOf(overall, check.Status)
	}

	code := http.StatusOK
	if overall == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	report := HealthReport{Status: overall, Version: h.Version, Checks: checks}
	report.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Cache-Control", "no-store")
	respond.Write(w, code, report)
}

// checkCMS reports the configured CMS connection.
func (h *Health) checkCMS() CheckResult {
	if !h.CMSConfigured {
		return CheckResult{Status: statusDegraded,
			Message: "no cms configured; connection settings come from the wizard"}
	}

	details := map[string]any{"authenticated": h.CMSAuthenticated}
	if !h.CMSAuthenticated {
		return CheckResult{Status: statusDegraded, Details: details,
			Message: "no credentials: discovery works, publishing will fail"}
	}
	return CheckResult{Status: statusHealthy, Details: details}
}

// checkGenerator reports the active draft generation provider.
func (h *Health) checkGenerator() CheckResult {
	details := map[string]any{"provider": h.Provider}

	switch h.Provider {
	case "":
		return CheckResult{Status: statusUnhealthy, Message: "no generation provider configured"}
	case "noop":
		return CheckResult{Status: statusDegraded, Details: details,
			Message: "noop provider produces placeholder drafts"}
	default:
		return CheckResult{Status: statusHealthy, Details: details}
	}
}

// checkBreakers reports every upstream circuit breaker by name. Open
// breakers mean an upstream is refusing work right now; the service itself
// stays up, so the check degrades instead of failing.
func (h *Health) checkBreakers() CheckResult {
	details := make(map[string]any, len(h.Breakers))
	open := 0
	for _, breaker := range h.Breakers {
		if breaker == nil {
			continue
		}
		details[breaker.Name()] = breaker.State().String()
		if breaker.IsOpen() {
			open++
		}
	}

	if open > 0 {
		return CheckResult{Status: statusDegraded, Details: details,
			Message: "one or more upstreams are circuit-broken"}
	}
	return CheckResult{Status: statusHealthy, Details: details}
}

// Ready answers Kubernetes readiness probes. The server is ready unless
// every configured upstream breaker is open, in which case no request could
// do useful work anyway.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	if h.allBreakersOpen() {
		http.Error(w, "all upstreams circuit-broken", http.StatusServiceUnavailable)
		return
	}
	writeProbe(w, "ready")
}

// Alive answers Kubernetes liveness probes. Replying at all is the check.
func (h *Health) Alive(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, "alive")
}

// allBreakersOpen reports whether every configured breaker is open. Having
// no breakers at all counts as ready.
func (h *Health) allBreakersOpen() bool {
	total, open := 0, 0
	for _, breaker := range h.Breakers {
		if breaker == nil {
			continue
		}
		total++
		if breaker.IsOpen() {
			open++
		}
	}
	return total > 0 && open == total
}

// writeProbe answers a probe with a one-word plain text body.
func writeProbe(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, body); err != nil {
		slog.Warn("probe response write failed", slog.String("probe", body), slog.Any("error", err))
	}
}
