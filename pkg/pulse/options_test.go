package pulse_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// topoCall records one Record invocation on a test recorder.
type topoCall struct {
	id      string
	label   string
	parents []string
}

type fakeTopology struct {
	calls []topoCall
}

func (f *fakeTopology) Record(id, label string, parents ...string) {
	f.calls = append(f.calls, topoCall{id: id, label: label, parents: parents})
}

func TestWithTopologyRecordsDerivedNodes(t *testing.T) {
	topo := &fakeTopology{}
	sink := pulse.NewSink[int](pulse.WithTopology(topo))

	doubled := pulse.Map(
		sink.Stream().Filter(func(v int) bool { return v > 0 }),
		func(v int) int { return v * 2 },
	)
	_ = doubled.Collect()

	require.GreaterOrEqual(t, len(topo.calls), 3)
	assert.Equal(t, "sink", topo.calls[0].label)
	assert.Empty(t, topo.calls[0].parents)

	assert.Equal(t, "filter", topo.calls[1].label)
	require.Len(t, topo.calls[1].parents, 1)
	assert.Equal(t, topo.calls[0].id, topo.calls[1].parents[0])

	assert.Equal(t, "map", topo.calls[2].label)
	require.Len(t, topo.calls[2].parents, 1)
	assert.Equal(t, topo.calls[1].id, topo.calls[2].parents[0])
}

func TestWithLoggerEmitsDebugRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sink := pulse.NewSink[int](pulse.WithLogger(logger), pulse.WithName("readings"))
	coll := sink.Stream().Collect()

	sink.Update(1)
	sink.End()
	_ = coll.Wait()

	out := buf.String()
	assert.Contains(t, out, "producer update")
	assert.Contains(t, out, "stream ended")
}

func TestInstrumentedSinkBehavesLikePlainSink(t *testing.T) {
	sink := pulse.NewSink[int](
		pulse.WithName("instrumented"),
		pulse.WithMetrics(observability.NoopMetrics{}),
		pulse.WithSpanManager(observability.NoopSpanManager{}),
	)
	coll := pulse.Map(sink.Stream(), func(v int) int { return v + 1 }).Collect()

	sink.Update(0)
	sink.Update(1)
	sink.End()

	assert.Equal(t, []int{1, 2}, coll.Wait())
}

func TestFromConfig(t *testing.T) {
	t.Run("empty config yields no options", func(t *testing.T) {
		opts := pulse.FromConfig(config.New(nil))
		assert.Empty(t, opts)
	})

	t.Run("all keys", func(t *testing.T) {
		cfg := config.New(map[string]any{
			"name":            "prices",
			"logging_enabled": true,
			"metrics_enabled": true,
			"tracing_enabled": true,
		})
		opts := pulse.FromConfig(cfg)
		assert.Len(t, opts, 4)

		// The options must apply cleanly to a producer.
		sink := pulse.NewSink[int](opts...)
		coll := sink.Stream().Collect()
		sink.Update(5)
		sink.End()
		assert.Equal(t, []int{5}, coll.Wait())
	})
}
