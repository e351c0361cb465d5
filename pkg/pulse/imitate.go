package pulse

import (
	"sync"

	"github.com/petermattis/goid"
)

// Feedback edges cannot dispatch by direct recursive call: the target node
// sits above the current call frame, so a direct call would re-enter its
// dispatch gate on the same goroutine. Instead, imitator callbacks append a
// deferred task to a queue scoped to the calling goroutine, and the
// outermost producer call on that goroutine drains the queue after its own
// synchronous fan-out has fully returned. Tasks run in strict enqueue order,
// giving breadth-first processing across generations of feedback rather
// than depth-first recursion.
//
// The queue is created lazily, owned by the first entry point on the
// goroutine, and always drained to empty (or discarded on panic) before
// that call returns; it is never observable outside it.
var imitQueues sync.Map // goroutine id -> *imitQueue

type imitQueue struct {
	tasks []func()
}

// withImitatorScope runs fn as a (potentially) outermost producer call.
// The first scope on a goroutine owns the deferred queue and drains it;
// nested scopes run fn directly and leave draining to the owner. Returns
// the number of deferred tasks this call drained.
func withImitatorScope(fn func()) int {
	id := goid.Get()
	if _, nested := imitQueues.Load(id); nested {
		fn()
		return 0
	}

	q := &imitQueue{}
	imitQueues.Store(id, q)
	// Discards pending tasks if fn or a drained task panics; the panic
	// propagates to the caller per the engine's fault contract.
	defer imitQueues.Delete(id)

	fn()

	drained := 0
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		task()
		drained++
	}
	return drained
}

// enqueueImitation defers a dispatch of ev into n until the outermost call
// on this goroutine drains its queue. Outside any producer call there is
// nothing on the stack above us, so the dispatch happens directly.
func enqueueImitation[T any](n *node[T], ev Event[T]) {
	id := goid.Get()
	v, ok := imitQueues.Load(id)
	if !ok {
		n.dispatch(ev, false)
		return
	}
	q := v.(*imitQueue)
	q.tasks = append(q.tasks, func() { n.dispatch(ev, false) })
}

// Imitator is a placeholder node with no upstream producer until Imitate is
// called. It exists to close cycles: declare the imitator first, build the
// downstream graph off its stream, then imitate the stream that closes the
// loop.
//
// Termination of a feedback loop is the caller's responsibility. A cycle in
// which every generation produces another event never drains; the engine
// performs no cycle detection.
type Imitator[T any] struct {
	node *node[T]
	inst *instrumentation
}

// NewImitator creates an imitator.
func NewImitator[T any](opts ...Option) *Imitator[T] {
	inst := newInstrumentation("imitator", opts)
	n := newNode[T](noMemory, nil, inst)
	if inst != nil {
		n.topoID = inst.id
		inst.recordTopology(inst.id, "imitator")
	}
	return &Imitator[T]{node: n, inst: inst}
}

// Stream returns a stream view of the imitator's events.
func (im *Imitator[T]) Stream() *Stream[T] {
	return &Stream[T]{peg: newFakePeg(), node: im.node}
}

// Imitate subscribes the imitator to source. Every event from source,
// the end sentinel included, is replayed into the imitator's own
// subscribers through the deferred queue. Deferring End matters when the
// source ends from inside the feedback cycle (a take cutting the loop):
// the callback then fires while the imitator's own dispatch gate is held
// further up the stack, and a direct dispatch would block on it forever.
//
// The returned subscription detaches the imitator from source when
// explicitly unsubscribed.
func (im *Imitator[T]) Imitate(source *Stream[T]) *Subscription {
	var pg *peg
	withImitatorScope(func() {
		pg = source.internalSubscribe(func(ev Event[T]) {
			enqueueImitation(im.node, ev)
		})
	})
	pg.keep()
	return newSubscription(pg)
}
