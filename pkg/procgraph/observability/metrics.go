package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records backend-interaction metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRequest records a backend request with its duration and error status.
	RecordRequest(ctx context.Context, endpoint string, duration time.Duration, err error)

	// RecordJob records a batch job reaching a terminal state.
	RecordJob(ctx context.Context, success bool, duration time.Duration)

	// RecordGraphSize records the node count of a submitted graph.
	RecordGraphSize(ctx context.Context, nodes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	requests       metric.Int64Counter
	requestLatency metric.Float64Histogram
	requestErrors  metric.Int64Counter
	jobs           metric.Int64Counter
	jobLatency     metric.Float64Histogram
	graphSize      metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("procgraph")

	requests, err := meter.Int64Counter("procgraph.request.count",
		metric.WithDescription("Number of backend requests"),
	)
	if err != nil {
		return nil, err
	}

	requestLatency, err := meter.Float64Histogram("procgraph.request.latency_ms",
		metric.WithDescription("Backend request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	requestErrors, err := meter.Int64Counter("procgraph.request.errors",
		metric.WithDescription("Number of failed backend requests"),
	)
	if err != nil {
		return nil, err
	}

	jobs, err := meter.Int64Counter("procgraph.job.count",
		metric.WithDescription("Number of batch jobs reaching a terminal state"),
	)
	if err != nil {
		return nil, err
	}

	jobLatency, err := meter.Float64Histogram("procgraph.job.latency_ms",
		metric.WithDescription("Batch job duration from submission to terminal state in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	graphSize, err := meter.Int64Histogram("procgraph.graph.nodes",
		metric.WithDescription("Node count of submitted process graphs"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		requests:       requests,
		requestLatency: requestLatency,
		requestErrors:  requestErrors,
		jobs:           jobs,
		jobLatency:     jobLatency,
		graphSize:      graphSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordRequest records a backend request.
func (m *otelMetrics) RecordRequest(ctx context.Context, endpoint string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("endpoint", endpoint),
	}

	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordJob records a terminal batch job.
func (m *otelMetrics) RecordJob(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.jobs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.jobLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordGraphSize records the node count of a submitted graph.
func (m *otelMetrics) RecordGraphSize(ctx context.Context, nodes int64) {
	m.graphSize.Record(ctx, nodes)
}
