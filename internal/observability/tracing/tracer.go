package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "contentforge"

var tracer = otel.Tracer(instrumentationName)

// StartSpan opens a span as a child of whatever the context already carries.
//
//	ctx, span := tracing.StartSpan(ctx, "pipeline.publish")
//	defer span.End()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, opts...)
}

var errorFlag = attribute.Bool("error", true)

// FlagError marks the span as failed so trace queries can filter on it.
func FlagError(span trace.Span) {
	span.SetAttributes(errorFlag)
}
