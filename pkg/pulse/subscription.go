package pulse

// Subscription is the caller-owned handle for one observation registered
// with Stream.Subscribe.
//
// Unlike the scope-tied tokens combinators use internally, a subscription is
// deliberately not bound to its handle's lifetime: dropping the handle
// changes nothing, and the registration keeps delivering until Unsubscribe
// is called. Only explicit caller intent ends a top-level observation.
type Subscription struct {
	peg *peg
}

func newSubscription(p *peg) *Subscription {
	return &Subscription{peg: p}
}

// Unsubscribe removes the registration. Events dispatched after Unsubscribe
// returns are no longer delivered; an in-flight synchronous dispatch is
// never interrupted. Unsubscribe is idempotent.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.peg == nil {
		return
	}
	s.peg.unkeep()
	s.peg.release()
}
