package http

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"contentforge/internal/handler/http/respond"
	"contentforge/internal/handler/http/responsewriter"
	"contentforge/internal/observability/logging"

	"go.opentelemetry.io/otel/trace"
)

// AccessLog returns middleware that emits one structured line per request
// and stores a request-scoped logger in the context, so handlers retrieving
// it via logging.Ctx get the request_id on their lines for free. The
// completion line also carries the active trace ID for log-trace
// correlation.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()

			reqLogger := logging.WithRequest(r.Context(), logger)
			ctx := logging.WithContext(r.Context(), reqLogger)

			rec := responsewriter.Wrap(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			traceID := trace.SpanFromContext(ctx).SpanContext().TraceID().String()
			reqLogger.Info("request completed",
				slog.String("trace_id", traceID), slog.String("method", r.Method),
				slog.String("path", r.URL.Path), slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr), slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.Int("status", rec.Status()), slog.Int("bytes", rec.Bytes()),
				slog.Duration("duration", time.Since(began)))
		})
	}
}

// Recoverer returns middleware that turns a panic into a 500 response
// instead of killing the server. It sits outside AccessLog in the chain, so
// it builds its own request-scoped logger for the panic line.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				respond.Fail(w, http.StatusInternalServerError, errors.New("internal error"))

				// スタック付きで記録してから握りつぶす
				logging.WithRequest(r.Context(), logger).Error("panic recovered",
					slog.String("method", r.Method), slog.String("path", r.URL.Path),
					slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps request body size; MaxBytesReader makes oversized bodies
// fail on read inside the handler rather than buffering them.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
