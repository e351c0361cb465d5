package pulse

// Stream is a handle onto a flow of events, values in time.
//
// Streams have combinators that build execution trees working over events.
// Operations that preserve the element type are methods; operations that
// change it (Map, Fold, SampleCombine, ...) are package-level functions,
// since Go methods cannot introduce type parameters.
//
// # Memory
//
// Some streams have memory: they keep a copy of the last value they
// produced, and any new subscriber receives that value synchronously.
// Memory streams are created explicitly with Remember, and implicitly by
// combinators such as Fold and StartWith. Memory is not inherited by
// further derived streams.
type Stream[T any] struct {
	peg  *peg
	node *node[T]
}

// Of creates a memory stream that emits a single value to every subscriber
// and never ends.
func Of[T any](v T) *Stream[T] {
	return &Stream[T]{peg: newFakePeg(), node: newNode(keepUntilEnd, &v, nil)}
}

// Never creates a stream that never emits and never ends.
func Never[T any]() *Stream[T] {
	return &Stream[T]{peg: newFakePeg(), node: newNode[T](noMemory, nil, nil)}
}

// HasMemory reports whether this stream keeps its last value for late
// subscribers.
func (s *Stream[T]) HasMemory() bool {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	return s.node.mode.hasMemory()
}

// Subscribe registers fn for every event of this stream. fn observes each
// item in delivery order and exactly one End event when the stream ends.
//
// The registration persists until the returned Subscription is explicitly
// released; it is not tied to any handle's lifetime.
func (s *Stream[T]) Subscribe(fn func(Event[T])) *Subscription {
	pg := s.node.subscribe(fn)
	pg.keep()
	return newSubscription(pg)
}

// internalSubscribe registers a combinator callback. The returned peg is
// chained to this stream's own token, so releasing a derived registration
// cascades liveness up through the ancestry.
func (s *Stream[T]) internalSubscribe(fn func(Event[T])) *peg {
	pg := s.node.subscribe(fn)
	pg.addRelated(s.peg)
	return pg
}

// derive creates a child node for a combinator off this stream, reporting
// it to an attached topology recorder.
func (s *Stream[T]) derive(label string, mode memoryMode, seed *T) *node[T] {
	return deriveFrom(s.node.inst, label, mode, seed, s.node.topoID)
}

// deriveFrom is the type-changing variant of derive used by package-level
// combinators.
func deriveFrom[T any](inst *instrumentation, label string, mode memoryMode, seed *T, parents ...string) *node[T] {
	n := newNode(mode, seed, inst)
	if inst != nil {
		n.topoID = inst.nodeID()
		inst.recordTopology(n.topoID, label, parents...)
	}
	return n
}

// Filter keeps only the items matching pred. End always passes through.
//
//	even := sink.Stream().Filter(func(v int) bool { return v%2 == 0 })
func (s *Stream[T]) Filter(pred func(T) bool) *Stream[T] {
	child := s.derive("filter", noMemory, nil)
	pg := s.internalSubscribe(func(ev Event[T]) {
		if v, ok := ev.Value(); ok && !pred(v) {
			return
		}
		child.dispatch(ev, false)
	})
	return &Stream[T]{peg: pg, node: child}
}

// Remember turns this stream into a memory stream: each value is kept for
// future subscribers until the stream ends.
func (s *Stream[T]) Remember() *Stream[T] {
	return s.rememberMode(keepUntilEnd)
}

func (s *Stream[T]) rememberMode(mode memoryMode) *Stream[T] {
	child := s.derive("remember", mode, nil)
	pg := s.internalSubscribe(func(ev Event[T]) {
		child.dispatch(ev, false)
	})
	return &Stream[T]{peg: pg, node: child}
}

// StartWith prepends a start value. The result is a memory stream, so the
// start value (or a later one) is replayed to every subscriber.
func (s *Stream[T]) StartWith(start T) *Stream[T] {
	child := s.derive("start_with", keepUntilEnd, &start)
	pg := s.internalSubscribe(func(ev Event[T]) {
		child.dispatch(ev, false)
	})
	return &Stream[T]{peg: pg, node: child}
}

// Drop discards the first amount items.
func (s *Stream[T]) Drop(amount int) *Stream[T] {
	todo := amount + 1
	return s.DropWhile(func(T) bool {
		if todo > 0 {
			todo--
		}
		return todo > 0
	})
}

// DropWhile discards items while pred holds. Once pred is false the
// resulting stream emits every following event.
func (s *Stream[T]) DropWhile(pred func(T) bool) *Stream[T] {
	child := s.derive("drop_while", noMemory, nil)
	dropping := true
	pg := s.internalSubscribe(func(ev Event[T]) {
		if v, ok := ev.Value(); ok {
			if dropping && !pred(v) {
				dropping = false
			}
			if dropping {
				return
			}
		}
		child.dispatch(ev, false)
	})
	return &Stream[T]{peg: pg, node: child}
}

// Take passes through amount items, then ends the derived stream even
// though the source continues.
func (s *Stream[T]) Take(amount int) *Stream[T] {
	todo := amount + 1
	return s.TakeWhile(func(T) bool {
		if todo > 0 {
			todo--
		}
		return todo > 0
	})
}

// TakeWhile passes items through as long as pred holds; the first failing
// item ends the derived stream instead of being emitted.
func (s *Stream[T]) TakeWhile(pred func(T) bool) *Stream[T] {
	child := s.derive("take_while", noMemory, nil)
	pg := s.internalSubscribe(func(ev Event[T]) {
		if v, ok := ev.Value(); ok {
			if pred(v) {
				child.dispatch(ev, false)
			} else {
				child.dispatch(End[T](), false)
			}
			return
		}
		child.dispatch(ev, false)
	})
	return &Stream[T]{peg: pg, node: child}
}

// Last emits only the final item, when the stream ends.
func (s *Stream[T]) Last() *Stream[T] {
	child := s.derive("last", noMemory, nil)
	var last *T
	pg := s.internalSubscribe(func(ev Event[T]) {
		if v, ok := ev.Value(); ok {
			last = &v
			return
		}
		if last != nil {
			child.dispatch(Item(*last), false)
		}
		child.dispatch(End[T](), false)
	})
	return &Stream[T]{peg: pg, node: child}
}

// Collect buffers every delivered item behind a lock for synchronous
// draining. Mostly interesting for tests.
func (s *Stream[T]) Collect() *Collector[T] {
	c := &Collector[T]{done: make(chan struct{})}
	c.peg = s.internalSubscribe(func(ev Event[T]) {
		v, ok := ev.Value()
		if !ok {
			close(c.done)
			return
		}
		c.mu.Lock()
		c.items = append(c.items, v)
		c.mu.Unlock()
	})
	return c
}

// Wait blocks the calling goroutine until the stream ends. Returns
// immediately if it already has.
func (s *Stream[T]) Wait() {
	done := make(chan struct{})
	pg := s.internalSubscribe(func(ev Event[T]) {
		if ev.IsEnd() {
			close(done)
		}
	})
	<-done
	pg.release()
}
