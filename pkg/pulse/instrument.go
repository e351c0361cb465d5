package pulse

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// TopologyRecorder receives the shape of a stream graph as it is built.
// debug.Recorder implements it; any collector of (id, label, parents)
// triples will do.
type TopologyRecorder interface {
	// Record reports one node with its operation label and parent node ids.
	Record(id, label string, parents ...string)
}

// instrumentation is the observability record shared by a producer and
// every node derived from it. Nil when the producer was built without
// options, which keeps the dispatch hot path to a single pointer check.
type instrumentation struct {
	id       string
	name     string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	topology TopologyRecorder
	seq      atomic.Uint64
}

// newInstrumentation builds the record for a producer, or returns nil when
// no options were given.
func newInstrumentation(kind string, opts []Option) *instrumentation {
	if len(opts) == 0 {
		return nil
	}
	o := options{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	name := o.name
	if name == "" {
		name = kind
	}
	inst := &instrumentation{
		id:       fmt.Sprintf("%s-%s", kind, uuid.New().String()[:8]),
		name:     name,
		logger:   o.logger,
		metrics:  o.metrics,
		spans:    o.spans,
		topology: o.topology,
	}
	return inst
}

// nodeID mints a topology id for a derived node. Empty when no topology
// recorder is attached.
func (in *instrumentation) nodeID() string {
	if in == nil || in.topology == nil {
		return ""
	}
	return fmt.Sprintf("%s/%d", in.id, in.seq.Add(1))
}

// recordTopology reports a derived node to the attached recorder.
func (in *instrumentation) recordTopology(id, label string, parents ...string) {
	if in == nil || in.topology == nil || id == "" {
		return
	}
	live := make([]string, 0, len(parents))
	for _, p := range parents {
		if p != "" {
			live = append(live, p)
		}
	}
	in.topology.Record(id, label, live...)
}
