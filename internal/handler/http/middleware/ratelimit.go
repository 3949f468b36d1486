package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"
)

// RateLimiter enforces a per-IP sliding window limit on HTTP requests.
//
// Generation runs are expensive (each one burns AI tokens and hits the CMS),
// so the API caps how often a single client can trigger them. The client IP
// comes from a ClientIPSource, which decides whether proxy headers are
// trusted.
type RateLimiter struct {
	limit  int           // admitted requests per window per IP
	window time.Duration // span of the sliding window
	ips    ClientIPSource

	mu sync.Mutex
	// seen holds per-IP hit timestamps within the window
	seen map[string][]time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window
// for each client IP.
//
//	// Default secure configuration (no proxy trust)
//	limiter := NewRateLimiter(10, time.Minute, PeerAddrSource{})
func NewRateLimiter(limit int, window time.Duration, source ClientIPSource) *RateLimiter {
	lim := &RateLimiter{limit: limit, window: window, ips: source}
	lim.seen = make(map[string][]time.Time)
	return lim
}

// clientIP resolves the accounting IP, falling back to the bare RemoteAddr
// when the configured source fails.
func (lim *RateLimiter) clientIP(r *http.Request) (string, error) {
	ip, err := lim.ips.ClientIP(r)
	if err != nil {
		slog.Warn("rate limiter: ip source failed, falling back to RemoteAddr",
			slog.Any("error", err), slog.String("remote_addr", r.RemoteAddr))
		return peerIP(r.RemoteAddr)
	}
	return ip, nil
}

// Limit returns a handler that rejects requests over the limit with
// 429 Too Many Requests. A request whose address cannot be attributed at
// all is rejected with 500 rather than admitted unaccounted.
func (lim *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := lim.clientIP(r)
		if err != nil {
			slog.Error("rate limiter: request address unattributable",
				slog.Any("error", err), slog.String("remote_addr", r.RemoteAddr))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if !lim.admit(ip) {
			slog.Warn("client exceeded rate limit",
				slog.String("ip", ip), slog.String("path", r.URL.Path),
				slog.Int("limit", lim.limit), slog.Duration("window", lim.window))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// admit applies the sliding window: hits older than the window are dropped,
// and the request is admitted only while the remaining count stays under
// the limit.
func (lim *RateLimiter) admit(ip string) bool {
	arrival := time.Now()

	lim.mu.Lock()
	defer lim.mu.Unlock()

	hits := pruneBefore(lim.seen[ip], arrival.Add(-lim.window))
	admitted := len(hits) < lim.limit
	if admitted {
		hits = append(hits, arrival)
	}
	lim.seen[ip] = hits
	return admitted
}

// EvictIdle drops expired hits for every IP and forgets IPs with none
// left. Called periodically so one-off clients do not accumulate in the map
// forever.
func (lim *RateLimiter) EvictIdle() {
	cutoff := time.Now().Add(-lim.window)

	lim.mu.Lock()
	defer lim.mu.Unlock()

	for ip, hits := range lim.seen {
		if kept := pruneBefore(hits, cutoff); len(kept) > 0 {
			lim.seen[ip] = kept
		} else {
			delete(lim.seen, ip)
		}
	}

	slog.Debug("rate limiter: evicted idle clients",
		slog.Int("active_ips", len(lim.seen)))
}

// pruneBefore drops the hits at or before cutoff, reusing the underlying
// array.
func pruneBefore(hits []time.Time, cutoff time.Time) []time.Time {
	return slices.DeleteFunc(hits, func(hit time.Time) bool {
		return !hit.After(cutoff)
	})
}
