package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the package tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("procgraph")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRequestSpan starts a span for a single backend request.
	// Returns the context with span and the span itself.
	StartRequestSpan(ctx context.Context, method, endpoint string) (context.Context, trace.Span)

	// StartPollSpan starts a span covering a full job-polling loop.
	StartPollSpan(ctx context.Context, jobID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartRequestSpan starts a span for a backend request.
func (m *otelSpanManager) StartRequestSpan(ctx context.Context, method, endpoint string) (context.Context, trace.Span) {
	return StartRequestSpan(ctx, method, endpoint)
}

// StartPollSpan starts a span for a job-polling loop.
func (m *otelSpanManager) StartPollSpan(ctx context.Context, jobID string) (context.Context, trace.Span) {
	return StartPollSpan(ctx, jobID)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// Convenience functions that operate on the global tracer.
// These are useful for simple cases where you don't need the interface.

// StartRequestSpan starts a span for a backend request.
// Uses the global OTel tracer.
func StartRequestSpan(ctx context.Context, method, endpoint string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "procgraph.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.endpoint", endpoint),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartPollSpan starts a span for a job-polling loop.
// Uses the global OTel tracer.
func StartPollSpan(ctx context.Context, jobID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "procgraph.job.poll",
		trace.WithAttributes(
			attribute.String("job.id", jobID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
