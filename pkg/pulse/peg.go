package pulse

import "sync"

// peg is the lifetime token behind one subscriber registration.
//
// A peg in auto mode detaches its registration when the last reference is
// released. A kept peg leaves the registration in place regardless of its
// own lifetime; only an explicit force-detach (Subscription.Unsubscribe)
// removes it.
//
// Pegs compose two ways. A "many" peg aggregates the pegs of a combinator
// that subscribed to several upstreams, so one release covers all of them.
// A "related" peg chains a derived registration to its parent stream's
// token: releasing the derived peg also drops one reference on the parent,
// cascading liveness up the ancestry without a separate sweep.
//
// Stream handles are garbage-collected, never destroyed at a known point,
// so references are dropped only at explicit release sites (Unsubscribe,
// collector drains, flatten switching inners) and a cascaded release only
// detaches registrations whose count actually reaches zero.
type peg struct {
	mu       sync.Mutex
	refs     int
	kept     bool
	released bool
	detach   func()
	children []*peg
	related  []*peg
}

// newPeg creates an auto-mode peg owning one registration.
func newPeg(detach func()) *peg {
	return &peg{refs: 1, detach: detach}
}

// newFakePeg creates a peg with no registration behind it. Used by stream
// handles that observe a node they do not subscribe to (sink views, Of,
// Never, ended-node subscribers).
func newFakePeg() *peg {
	return &peg{refs: 1}
}

// manyPegs aggregates child pegs under one parent; releasing the parent
// releases every child.
func manyPegs(children []*peg) *peg {
	return &peg{refs: 1, children: children}
}

// retain adds one reference.
func (p *peg) retain() {
	p.mu.Lock()
	p.refs++
	p.mu.Unlock()
}

// keep switches the peg to kept mode: the registration survives release.
func (p *peg) keep() {
	p.mu.Lock()
	p.kept = true
	p.mu.Unlock()
}

// unkeep reverts kept mode so a following release detaches.
func (p *peg) unkeep() {
	p.mu.Lock()
	p.kept = false
	p.mu.Unlock()
}

// addRelated chains r to this peg's lifetime. r gains a reference that is
// dropped when this peg fully releases.
func (p *peg) addRelated(r *peg) {
	if r == nil {
		return
	}
	r.retain()
	p.mu.Lock()
	p.related = append(p.related, r)
	p.mu.Unlock()
}

// release drops one reference. At zero the registration is detached (unless
// kept) and children and related pegs are released in turn. Releasing an
// already-released peg is a no-op.
func (p *peg) release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.refs--
	if p.refs > 0 {
		p.mu.Unlock()
		return
	}
	p.released = true
	detach := p.detach
	kept := p.kept
	cascade := make([]*peg, 0, len(p.children)+len(p.related))
	cascade = append(cascade, p.children...)
	cascade = append(cascade, p.related...)
	p.mu.Unlock()

	if !kept && detach != nil {
		detach()
	}
	for _, c := range cascade {
		c.release()
	}
}
