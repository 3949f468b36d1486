// Package tracing wires OpenTelemetry into the HTTP layer and the pipeline.
//
// NewHandler opens a server span per request, honoring incoming W3C trace
// context and echoing the trace ID in X-Trace-Id. Pipeline stages open child
// spans via StartSpan:
//
//	ctx, span := tracing.StartSpan(ctx, "pipeline.collect_source")
//	defer span.End()
//
// Spans go to the global tracer provider. Hooking up an exporter (OTLP,
// Jaeger) is a deployment concern; without one every span is a no-op.
package tracing
