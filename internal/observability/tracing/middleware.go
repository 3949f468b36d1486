package tracing

import (
	"net/http"

	"contentforge/internal/handler/http/responsewriter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// NewHandler wraps next so every request runs inside a server span. Incoming
// W3C trace context is honored, so a wizard frontend that already traces can
// parent the server span; the trace ID goes back out in X-Trace-Id either
// way. Status, method, and path land on the span after the handler returns,
// with 5xx marked as errors.
func NewHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		spanName := r.Method + " " + r.URL.Path
		ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())

		rec := responsewriter.Wrap(w)
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.Status()),
			attribute.String("http.method", r.Method), attribute.String("http.path", r.URL.Path))
		if rec.Status() >= 500 {
			FlagError(span)
		}
	})
}
