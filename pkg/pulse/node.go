package pulse

import (
	"context"
	"sync"

	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// memoryMode governs whether and for how long a node retains its last value.
type memoryMode uint8

const (
	// noMemory nodes never populate memory.
	noMemory memoryMode = iota

	// keepUntilEnd nodes retain the last value until the end sentinel, which
	// clears it. Late subscribers receive the retained value synchronously.
	keepUntilEnd

	// keepAfterEnd nodes retain the last value even after the stream ends,
	// for late "sample" reads.
	keepAfterEnd
)

// hasMemory reports whether this mode retains values at all.
func (m memoryMode) hasMemory() bool {
	return m != noMemory
}

// registration is one subscriber callback with its removal handle.
type registration[T any] struct {
	id uint64
	fn func(Event[T])
}

// node is the shared propagation point behind every stream handle.
//
// Two mutexes implement the lock discipline:
//
//   - mu guards memory, subscribers and the ended flag. It is never held
//     across a callback into another node, so cross-node lock ordering cannot
//     deadlock on state. Operations such as fold briefly re-acquire it within
//     a dispatch to read their own memory.
//   - gate is held for one entire fan-out. An accepted dispatch runs to full
//     completion, all subscriber callbacks returned, before the next
//     concurrent dispatch into the same node may begin. This yields a single
//     total delivery order per node.
//
// Unlock on both is scope-guaranteed (defer), so a panic inside a user
// callback propagates without leaving the node locked.
type node[T any] struct {
	gate sync.Mutex

	mu     sync.Mutex
	mode   memoryMode
	memory *T
	subs   []registration[T]
	nextID uint64
	ended  bool

	// inst is the observability record inherited from the owning sink.
	// Nil unless the sink was constructed with options.
	inst *instrumentation

	// topoID identifies this node in an attached topology recorder.
	topoID string
}

// newNode creates a node. seed, when non-nil, pre-populates memory.
func newNode[T any](mode memoryMode, seed *T, inst *instrumentation) *node[T] {
	n := &node[T]{mode: mode, inst: inst}
	if seed != nil {
		v := *seed
		n.memory = &v
	}
	return n
}

// dispatch fans one event out to the current subscribers in registration
// order. Subscribers added during the fan-out are not invoked this round.
//
// When strict is true, dispatching into an ended node panics with a
// *UsageError: it means a producer violated the single-end contract. When
// strict is false the event is silently dropped instead; combinators use
// this form because races between multiple parents (end-when, take-while
// cutting a stream short, concurrent flatten inners) can legitimately
// produce a late event after the derived node ended.
func (n *node[T]) dispatch(ev Event[T], strict bool) {
	n.gate.Lock()
	defer n.gate.Unlock()

	subs, ok := n.apply(ev, strict)
	if !ok {
		return
	}

	if n.inst != nil {
		n.inst.metrics.RecordDispatch(context.Background(), n.inst.id, len(subs))
		if ev.IsEnd() {
			n.inst.metrics.RecordEnd(context.Background(), n.inst.id)
			observability.LogEnd(n.inst.logger, n.inst.id)
		}
	}

	for _, r := range subs {
		r.fn(ev)
	}
}

// apply mutates node state under mu and returns the subscriber snapshot.
// The second return is false when a non-strict dispatch hit an ended node.
func (n *node[T]) apply(ev Event[T], strict bool) ([]registration[T], bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ended {
		if strict {
			panic(errWriteAfterEnd("update"))
		}
		return nil, false
	}

	if v, ok := ev.Value(); ok {
		if n.mode.hasMemory() {
			n.memory = &v
		}
	} else {
		n.ended = true
		if n.mode == keepUntilEnd {
			n.memory = nil
		}
	}

	subs := make([]registration[T], len(n.subs))
	copy(subs, n.subs)
	return subs, true
}

// subscribe registers fn and returns its lifetime token.
//
// If the node carries a present memory value, fn is invoked synchronously
// with it, once, before subscribe returns; this is how remembering streams
// replay state to late subscribers. The replay runs under the dispatch gate
// but not the state lock, so no concurrent dispatch can interleave with it.
//
// Subscribing to a node that has already ended replays memory (KeepAfterEnd)
// and then delivers the end sentinel once; the callback is not registered
// since no further deliveries will ever occur.
func (n *node[T]) subscribe(fn func(Event[T])) *peg {
	n.gate.Lock()
	defer n.gate.Unlock()

	n.mu.Lock()
	var replay *T
	if n.memory != nil {
		v := *n.memory
		replay = &v
	}
	ended := n.ended

	var pg *peg
	if ended {
		pg = newFakePeg()
	} else {
		id := n.nextID
		n.nextID++
		n.subs = append(n.subs, registration[T]{id: id, fn: fn})
		pg = newPeg(func() { n.remove(id) })
	}
	n.mu.Unlock()

	if n.inst != nil {
		n.inst.metrics.RecordSubscription(context.Background(), n.inst.id)
		observability.LogSubscribe(n.inst.logger, n.inst.id)
	}

	if replay != nil {
		fn(Item(*replay))
	}
	if ended {
		fn(End[T]())
	}
	return pg
}

// remove detaches a registration by id. Called through peg release.
func (n *node[T]) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, r := range n.subs {
		if r.id == id {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// peekMemory returns a copy of the current memory value, or nil when absent.
func (n *node[T]) peekMemory() *T {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.memory == nil {
		return nil
	}
	v := *n.memory
	return &v
}

// isEnded reports whether the end sentinel has been delivered.
func (n *node[T]) isEnded() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ended
}

// subscriberCount reports the current number of registrations.
func (n *node[T]) subscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
