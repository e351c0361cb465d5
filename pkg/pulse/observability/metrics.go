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

// MetricsRecorder records pulse metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordUpdate records one outermost producer call with its duration,
	// including deferred feedback draining.
	RecordUpdate(ctx context.Context, producerID string, duration time.Duration)

	// RecordDispatch records one node fan-out with its subscriber count.
	RecordDispatch(ctx context.Context, producerID string, subscribers int)

	// RecordEnd records delivery of an end sentinel through a node.
	RecordEnd(ctx context.Context, producerID string)

	// RecordSubscription records a subscriber registration.
	RecordSubscription(ctx context.Context, producerID string)

	// RecordImitation records deferred feedback dispatches drained by one
	// producer call.
	RecordImitation(ctx context.Context, producerID string, drained int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	updateLatency metric.Float64Histogram
	dispatches    metric.Int64Counter
	fanout        metric.Int64Histogram
	ends          metric.Int64Counter
	subscriptions metric.Int64Counter
	imitations    metric.Int64Counter
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
	meter := otel.Meter("pulse")

	updateLatency, err := meter.Float64Histogram("pulse.update.latency_ms",
		metric.WithDescription("Producer update latency in milliseconds, including feedback draining"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("pulse.node.dispatches",
		metric.WithDescription("Number of node fan-outs"),
	)
	if err != nil {
		return nil, err
	}

	fanout, err := meter.Int64Histogram("pulse.node.fanout",
		metric.WithDescription("Subscribers reached per node fan-out"),
	)
	if err != nil {
		return nil, err
	}

	ends, err := meter.Int64Counter("pulse.node.ends",
		metric.WithDescription("Number of end sentinels delivered"),
	)
	if err != nil {
		return nil, err
	}

	subscriptions, err := meter.Int64Counter("pulse.subscriptions",
		metric.WithDescription("Number of subscriber registrations"),
	)
	if err != nil {
		return nil, err
	}

	imitations, err := meter.Int64Counter("pulse.imitator.deferred",
		metric.WithDescription("Deferred feedback dispatches drained"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		updateLatency: updateLatency,
		dispatches:    dispatches,
		fanout:        fanout,
		ends:          ends,
		subscriptions: subscriptions,
		imitations:    imitations,
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

// RecordUpdate records one outermost producer call.
func (m *otelMetrics) RecordUpdate(ctx context.Context, producerID string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("producer_id", producerID),
	}
	m.updateLatency.Record(ctx, float64(duration.Microseconds())/1000.0, metric.WithAttributes(attrs...))
}

// RecordDispatch records one node fan-out.
func (m *otelMetrics) RecordDispatch(ctx context.Context, producerID string, subscribers int) {
	attrs := []attribute.KeyValue{
		attribute.String("producer_id", producerID),
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.fanout.Record(ctx, int64(subscribers), metric.WithAttributes(attrs...))
}

// RecordEnd records an end sentinel delivery.
func (m *otelMetrics) RecordEnd(ctx context.Context, producerID string) {
	m.ends.Add(ctx, 1, metric.WithAttributes(
		attribute.String("producer_id", producerID),
	))
}

// RecordSubscription records a subscriber registration.
func (m *otelMetrics) RecordSubscription(ctx context.Context, producerID string) {
	m.subscriptions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("producer_id", producerID),
	))
}

// RecordImitation records drained feedback dispatches.
func (m *otelMetrics) RecordImitation(ctx context.Context, producerID string, drained int64) {
	m.imitations.Add(ctx, drained, metric.WithAttributes(
		attribute.String("producer_id", producerID),
	))
}
