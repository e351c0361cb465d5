package pulse

import (
	"log/slog"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// options holds per-producer configuration.
type options struct {
	name     string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	topology TopologyRecorder
}

// Option configures a Sink or Imitator at construction time.
type Option func(*options)

// WithName sets a human-readable producer name used in log fields and span
// attributes. Default: the producer kind ("sink" or "imitator").
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger attaches a structured logger. Per-event records are logged at
// Debug level; nothing is logged when no logger is attached.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics attaches a metrics recorder. Use
// observability.NewMetricsRecorder() for OpenTelemetry metrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSpanManager attaches a span manager. Each outermost Update/End call
// runs under one span, closed after the deferred feedback queue drains.
func WithSpanManager(m observability.SpanManager) Option {
	return func(o *options) {
		if m != nil {
			o.spans = m
		}
	}
}

// WithTopology attaches a topology recorder. Every node derived from the
// producer is reported to it with its operation label and parents, which
// debug.Recorder can render as a tree.
func WithTopology(r TopologyRecorder) Option {
	return func(o *options) {
		o.topology = r
	}
}

// FromConfig maps a loaded configuration to producer options.
//
// Recognized keys:
//   - name (string): producer name
//   - logging_enabled (bool): attach slog.Default()
//   - metrics_enabled (bool): attach the OTel metrics recorder
//   - tracing_enabled (bool): attach the OTel span manager
func FromConfig(cfg config.Config) []Option {
	var opts []Option
	if name := cfg.String("name", ""); name != "" {
		opts = append(opts, WithName(name))
	}
	if cfg.Bool("logging_enabled", false) {
		opts = append(opts, WithLogger(slog.Default()))
	}
	if cfg.Bool("metrics_enabled", false) {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if cfg.Bool("tracing_enabled", false) {
		opts = append(opts, WithSpanManager(observability.NewSpanManager()))
	}
	return opts
}
