/*
Package pulse provides synchronous reactive stream propagation.

# Overview

pulse is a Go library for in-process dataflow: producers push events into a
dynamically built graph of transformation nodes, and consumers observe the
results synchronously on the producing goroutine. There are no queues, no
backpressure, and no background goroutines; every Update executes the
entire reachable subgraph before it returns.

The library is modelled on the xstream school of reactive programming,
distilled to a small combinator set with:

  - Type-safe generics for event values
  - A strict per-node delivery order under concurrent producers
  - Deferred dispatch for feedback cycles, with no scheduler
  - OpenTelemetry integration for observability

# Basic Usage

Create a sink, derive streams with combinators, and push values:

	sink := pulse.NewSink[int]()

	squares := pulse.Map(
	    sink.Stream().Filter(func(v int) bool { return v%2 == 0 }),
	    func(v int) int { return v * v },
	)

	sub := squares.Subscribe(func(ev pulse.Event[int]) {
	    if v, ok := ev.Value(); ok {
	        fmt.Println(v)
	    }
	})
	defer sub.Unsubscribe()

	for i := 0; i < 10; i++ {
	    sink.Update(i)
	}
	sink.End()

# Memory

Some streams have memory: they keep their last value and replay it
synchronously to late subscribers. Remember, StartWith and Fold create
memory streams. Memory is not inherited by further derived streams.

# Threading

Every stream handle is safe to move between goroutines, and different
producers may update concurrently. The goroutine calling Update is the
goroutine that runs every subscriber callback reachable from it; a node's
dispatches are serialized, so each node delivers one total order of events.
The safety comes from a mutex per node, which is cheap without contention.

# Feedback

Cycles are closed with an Imitator: declare it first, build the downstream
graph off its stream, then call Imitate with the stream that feeds back.
Feedback events are replayed breadth-first after the originating Update's
own fan-out completes, instead of recursing. Termination is the feedback
logic's responsibility.

# Observability

Sinks and imitators accept options wiring structured logging (log/slog),
OpenTelemetry metrics and spans, and a topology recorder that the debug
package renders as a tree. All of it is opt-in; an unconfigured producer
pays a single nil check.
*/
package pulse
