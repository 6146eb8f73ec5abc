// Package observability provides production-grade observability for
// backend interactions: structured logging, metrics, and distributed
// tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds backend-request context to a logger.
// Returns a new logger with backend_url and request_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "https://backend.example/v1", "req-123")
//	enriched.Info("submitting graph") // includes backend_url, request_id
func EnrichLogger(logger *slog.Logger, backendURL, requestID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("backend_url", backendURL),
		slog.String("request_id", requestID),
	)
}

// LogRequest logs an outgoing backend request.
func LogRequest(logger *slog.Logger, method, endpoint string) {
	if logger == nil {
		return
	}
	logger.Debug("backend request",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
	)
}

// LogResponse logs a completed backend request.
func LogResponse(logger *slog.Logger, method, endpoint string, status int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("backend response",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRequestError logs a failed backend request.
func LogRequestError(logger *slog.Logger, method, endpoint string, err error) {
	if logger == nil {
		return
	}
	logger.Error("backend request failed",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.String("error", err.Error()),
	)
}

// LogJobStatus logs a batch-job status observation during polling.
func LogJobStatus(logger *slog.Logger, jobID, status string) {
	if logger == nil {
		return
	}
	logger.Info("job status",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)
}

// LogJobDone logs a batch job reaching a terminal state.
func LogJobDone(logger *slog.Logger, jobID, status string, elapsedMs float64) {
	if logger == nil {
		return
	}
	logger.Info("job finished polling",
		slog.String("job_id", jobID),
		slog.String("status", status),
		slog.Float64("elapsed_ms", elapsedMs),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
