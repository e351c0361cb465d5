// Package observability provides production-grade observability features
// for pulse: structured logging, metrics, and tracing.
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

// EnrichLogger adds pulse context to a logger.
// Returns a new logger with producer_id and name fields.
func EnrichLogger(logger *slog.Logger, producerID, name string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("producer_id", producerID),
		slog.String("name", name),
	)
}

// LogUpdate logs one producer call (an item update or the end call).
func LogUpdate(logger *slog.Logger, producerID string, end bool) {
	if logger == nil {
		return
	}
	logger.Debug("producer update",
		slog.String("producer_id", producerID),
		slog.Bool("end", end),
	)
}

// LogEnd logs delivery of the end sentinel through a node.
func LogEnd(logger *slog.Logger, producerID string) {
	if logger == nil {
		return
	}
	logger.Debug("stream ended",
		slog.String("producer_id", producerID),
	)
}

// LogSubscribe logs a new subscriber registration.
func LogSubscribe(logger *slog.Logger, producerID string) {
	if logger == nil {
		return
	}
	logger.Debug("subscriber added",
		slog.String("producer_id", producerID),
	)
}

// LogImitation logs the draining of deferred feedback dispatches.
func LogImitation(logger *slog.Logger, producerID string, drained int) {
	if logger == nil {
		return
	}
	logger.Debug("deferred dispatches drained",
		slog.String("producer_id", producerID),
		slog.Int("drained", drained),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
