package pulse

import (
	"sync"
	"sync/atomic"
)

// Combinator callbacks mutate captured state (dedupe's previous key, last's
// buffer, flatten's inner token) without locks: a node's dispatch gate
// serializes its fan-out, so callbacks registered on a single parent never
// run concurrently. Combinators with several parents (Merge, EndWhen,
// Combine2) synchronize explicitly.

// Map transforms every item through fn. End passes through.
//
//	squares := pulse.Map(ints, func(v int) int { return v * v })
func Map[T, U any](s *Stream[T], fn func(T) U) *Stream[U] {
	child := deriveFrom[U](s.node.inst, "map", noMemory, nil, s.node.topoID)
	pg := s.internalSubscribe(func(ev Event[T]) {
		if v, ok := ev.Value(); ok {
			child.dispatch(Item(fn(v)), false)
			return
		}
		child.dispatch(End[U](), false)
	})
	return &Stream[U]{peg: pg, node: child}
}

// MapTo emits a fixed value for every item.
func MapTo[T, U any](s *Stream[T], v U) *Stream[U] {
	return Map(s, func(T) U { return v })
}

// Fold combines events from the past with new events, like a reduce over a
// slice. The seed is delivered to the first subscriber synchronously, and
// each item replaces the memory with fn(memory, item). The result is always
// a memory stream.
//
//	sum := pulse.Fold(ints, 0, func(acc, v int) int { return acc + v })
//
// Fold panics with a *UsageError if an item arrives while its memory slot
// is empty; that indicates node state was corrupted out-of-band.
func Fold[T, U any](s *Stream[T], seed U, fn func(U, T) U) *Stream[U] {
	child := deriveFrom[U](s.node.inst, "fold", keepUntilEnd, &seed, s.node.topoID)
	pg := s.internalSubscribe(func(ev Event[T]) {
		v, ok := ev.Value()
		if !ok {
			child.dispatch(End[U](), false)
			return
		}
		prev := child.peekMemory()
		if prev == nil {
			panic(errMissingMemory("fold"))
		}
		child.dispatch(Item(fn(*prev, v)), false)
	})
	return &Stream[U]{peg: pg, node: child}
}

// Dedupe drops items equal to the immediately preceding item. The first
// item is always emitted.
func Dedupe[T comparable](s *Stream[T]) *Stream[T] {
	return DedupeBy(s, func(v T) T { return v })
}

// DedupeBy drops items whose extracted key equals the key of the
// immediately preceding emitted item. For any run of equal keys exactly one
// item is emitted.
//
//	distinct := pulse.DedupeBy(updates, func(u Update) string { return u.ID })
func DedupeBy[T any, K comparable](s *Stream[T], key func(T) K) *Stream[T] {
	child := s.derive("dedupe", noMemory, nil)
	var prev *K
	pg := s.internalSubscribe(func(ev Event[T]) {
		if v, ok := ev.Value(); ok {
			k := key(v)
			if prev != nil && *prev == k {
				return
			}
			prev = &k
		}
		child.dispatch(ev, false)
	})
	return &Stream[T]{peg: pg, node: child}
}

// Merge interleaves events from several streams into one, in call order.
// The merged stream ends only once every source has ended.
//
//	all := pulse.Merge(a.Stream(), b.Stream())
func Merge[T any](streams ...*Stream[T]) *Stream[T] {
	var inst *instrumentation
	parents := make([]string, 0, len(streams))
	for _, src := range streams {
		if inst == nil {
			inst = src.node.inst
		}
		parents = append(parents, src.node.topoID)
	}
	child := deriveFrom[T](inst, "merge", noMemory, nil, parents...)

	var remaining atomic.Int64
	remaining.Store(int64(len(streams)))

	pegs := make([]*peg, 0, len(streams))
	for _, src := range streams {
		pegs = append(pegs, src.internalSubscribe(func(ev Event[T]) {
			if _, ok := ev.Value(); ok {
				child.dispatch(ev, false)
				return
			}
			if remaining.Add(-1) == 0 {
				child.dispatch(End[T](), false)
			}
		}))
	}
	return &Stream[T]{peg: manyPegs(pegs), node: child}
}

// EndWhen passes s through but ends as soon as other ends, regardless of
// whether s itself has ended. Items of s arriving after that point are
// dropped.
func EndWhen[T, U any](s *Stream[T], other *Stream[U]) *Stream[T] {
	child := deriveFrom[T](s.node.inst, "end_when", noMemory, nil, s.node.topoID, other.node.topoID)
	endPeg := other.internalSubscribe(func(ev Event[U]) {
		if ev.IsEnd() {
			child.dispatch(End[T](), false)
		}
	})
	passPeg := s.internalSubscribe(func(ev Event[T]) {
		child.dispatch(ev, false)
	})
	return &Stream[T]{peg: manyPegs([]*peg{endPeg, passPeg}), node: child}
}

// Pair is the combined value emitted by SampleCombine and Combine2.
type Pair[A, B any] struct {
	First  A
	Second B
}

// SampleCombine combines every item of s with the last value seen on the
// sampled stream. Items of s arriving before the sampled stream has ever
// produced a value are dropped. After the sampled stream ends its last
// value keeps being used; the combined stream ends when s ends.
//
//	readings := pulse.SampleCombine(ticks, temperature)
func SampleCombine[T, U any](s *Stream[T], sampled *Stream[U]) *Stream[Pair[T, U]] {
	child := deriveFrom[Pair[T, U]](s.node.inst, "sample_combine", noMemory, nil, s.node.topoID, sampled.node.topoID)
	// The KeepAfterEnd view holds the sampled stream's last value readable
	// past its end.
	rem := sampled.rememberMode(keepAfterEnd)
	pg := s.internalSubscribe(func(ev Event[T]) {
		v, ok := ev.Value()
		if !ok {
			child.dispatch(End[Pair[T, U]](), false)
			return
		}
		if u := rem.node.peekMemory(); u != nil {
			child.dispatch(Item(Pair[T, U]{First: v, Second: *u}), false)
		}
	})
	pg.addRelated(rem.peg)
	return &Stream[Pair[T, U]]{peg: pg, node: child}
}

// Combine2 emits the latest pair of values from two streams, every time
// either stream produces, once both have produced at least one value. The
// combined stream ends when both inputs have ended.
func Combine2[A, B any](a *Stream[A], b *Stream[B]) *Stream[Pair[A, B]] {
	child := deriveFrom[Pair[A, B]](a.node.inst, "combine", noMemory, nil, a.node.topoID, b.node.topoID)

	var mu sync.Mutex
	var lastA *A
	var lastB *B
	remaining := 2

	// Dispatch under mu so concurrent updates of the two inputs cannot emit
	// pairs out of snapshot order.
	emit := func() {
		if lastA != nil && lastB != nil {
			child.dispatch(Item(Pair[A, B]{First: *lastA, Second: *lastB}), false)
		}
	}
	endOne := func() {
		remaining--
		if remaining == 0 {
			child.dispatch(End[Pair[A, B]](), false)
		}
	}

	pegA := a.internalSubscribe(func(ev Event[A]) {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := ev.Value(); ok {
			lastA = &v
			emit()
			return
		}
		endOne()
	})
	pegB := b.internalSubscribe(func(ev Event[B]) {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := ev.Value(); ok {
			lastB = &v
			emit()
			return
		}
		endOne()
	})
	return &Stream[Pair[A, B]]{peg: manyPegs([]*peg{pegA, pegB}), node: child}
}

// Flatten flattens a stream of streams sequentially: each new inner stream
// interrupts the previous one, whose subscription is dropped. An inner
// stream ending does nothing to the flattened stream; it ends when the
// outer stream ends.
func Flatten[T any](s *Stream[*Stream[T]]) *Stream[T] {
	child := deriveFrom[T](s.node.inst, "flatten", noMemory, nil, s.node.topoID)
	var inner *peg
	pg := s.internalSubscribe(func(ev Event[*Stream[T]]) {
		is, ok := ev.Value()
		if !ok {
			if inner != nil {
				inner.release()
				inner = nil
			}
			child.dispatch(End[T](), false)
			return
		}
		if inner != nil {
			inner.release()
		}
		inner = is.internalSubscribe(func(iev Event[T]) {
			if v, ok := iev.Value(); ok {
				child.dispatch(Item(v), false)
			}
			// inner end does nothing to the outer
		})
	})
	return &Stream[T]{peg: pg, node: child}
}

// FlattenConcurrently flattens a stream of streams concurrently: every
// inner stream's subscription is kept, so all of them deliver until the
// outer stream ends.
func FlattenConcurrently[T any](s *Stream[*Stream[T]]) *Stream[T] {
	child := deriveFrom[T](s.node.inst, "flatten_concurrently", noMemory, nil, s.node.topoID)
	pg := s.internalSubscribe(func(ev Event[*Stream[T]]) {
		is, ok := ev.Value()
		if !ok {
			child.dispatch(End[T](), false)
			return
		}
		ipg := is.internalSubscribe(func(iev Event[T]) {
			if v, ok := iev.Value(); ok {
				child.dispatch(Item(v), false)
			}
		})
		// the handle is dropped, but the registration keeps listening
		ipg.keep()
	})
	return &Stream[T]{peg: pg, node: child}
}
