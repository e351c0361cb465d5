package pulse

import (
	"context"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// Sink is the exclusive producer handle for a stream of events.
//
// The goroutine calling Update executes the entire reachable subgraph for
// that event, synchronously, including deferred feedback draining: nothing
// remains "to do" inside the engine once Update returns. The engine creates
// no background goroutines.
//
// A sink may be moved between goroutines, and multiple goroutines may drive
// different sinks concurrently; each node serializes whole dispatches.
type Sink[T any] struct {
	node *node[T]
	inst *instrumentation
}

// NewSink creates a sink that pushes values into a stream.
//
//	sink := pulse.NewSink[int]()
//	coll := sink.Stream().Collect()
//
//	sink.Update(0)
//	sink.Update(1)
//	sink.End()
//
//	items := coll.Wait() // [0 1]
func NewSink[T any](opts ...Option) *Sink[T] {
	inst := newInstrumentation("sink", opts)
	n := newNode[T](noMemory, nil, inst)
	if inst != nil {
		n.topoID = inst.id
		inst.recordTopology(inst.id, "sink")
	}
	return &Sink[T]{node: n, inst: inst}
}

// Stream returns a stream view of this sink. One view is created per call;
// all of them observe the same events.
func (s *Sink[T]) Stream() *Stream[T] {
	return &Stream[T]{peg: newFakePeg(), node: s.node}
}

// Update pushes one value into the sink. Calling Update after End panics
// with a *UsageError: it violates the single-end contract.
func (s *Sink[T]) Update(v T) {
	s.produce(Item(v))
}

// End delivers the end sentinel, exactly once. Subscribers observe one End
// event and nothing after it. Calling End or Update again panics with a
// *UsageError.
func (s *Sink[T]) End() {
	s.produce(End[T]())
}

func (s *Sink[T]) produce(ev Event[T]) {
	if s.inst == nil {
		withImitatorScope(func() { s.node.dispatch(ev, true) })
		return
	}

	ctx, span := s.inst.spans.StartUpdateSpan(context.Background(), s.inst.name, s.inst.id)
	observability.LogUpdate(s.inst.logger, s.inst.id, ev.IsEnd())
	start := time.Now()

	drained := withImitatorScope(func() { s.node.dispatch(ev, true) })

	s.inst.metrics.RecordUpdate(ctx, s.inst.id, time.Since(start))
	if drained > 0 {
		s.inst.metrics.RecordImitation(ctx, s.inst.id, int64(drained))
		observability.LogImitation(s.inst.logger, s.inst.id, drained)
	}
	s.inst.spans.EndSpanWithError(span, nil)
}
