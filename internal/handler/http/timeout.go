package http

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout caps how long a request may run. When the deadline passes before
// the handler has written anything the client gets a 504, and any later
// writes from the handler goroutine are swallowed.
//
// The configured duration must leave room for a whole generation batch: the
// generate endpoint holds the request open while every assignment runs, so
// the default is minutes, not seconds.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			guard := &deadlineWriter{inner: w}
			finished := make(chan struct{})

			go func() {
				defer close(finished)
				next.ServeHTTP(guard, r.WithContext(ctx))
			}()

			select {
			case <-finished:
			case <-ctx.Done():
				guard.expire()
			}
		})
	}
}

// deadlineWriter lets exactly one side produce the response: the handler
// goroutine with its normal output, or the middleware with the 504. Whoever
// locks second writes nothing.
type deadlineWriter struct {
	inner  http.ResponseWriter
	mu     sync.Mutex
	wrote  bool
	lapsed bool
}

func (d *deadlineWriter) Header() http.Header {
	return d.inner.Header()
}

func (d *deadlineWriter) WriteHeader(code int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lapsed || d.wrote {
		return
	}
	d.wrote = true
	d.inner.WriteHeader(code)
}

func (d *deadlineWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lapsed {
		return 0, http.ErrHandlerTimeout
	}
	if !d.wrote {
		d.wrote = true
		d.inner.WriteHeader(http.StatusOK)
	}
	return d.inner.Write(p)
}

// expire writes the 504 unless the handler already started a response.
func (d *deadlineWriter) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lapsed = true
	if d.wrote {
		return
	}
	d.inner.Header().Set("Content-Type", "application/json")
	d.inner.WriteHeader(http.StatusGatewayTimeout)
	_, _ = d.inner.Write([]byte(`{"error":"request timeout"}`))
}
