package pulse

import "fmt"

// Event is a single value in a stream: either an item carrying a value of T,
// or the end sentinel that closes the stream.
//
// Events are immutable value types. A stream delivers the end sentinel at
// most once, and never delivers an item after it.
type Event[T any] struct {
	value T
	item  bool
}

// Item creates an event carrying a value.
func Item[T any](v T) Event[T] {
	return Event[T]{value: v, item: true}
}

// End creates the end sentinel event.
func End[T any]() Event[T] {
	return Event[T]{}
}

// Value returns the carried value and true for item events, or the zero
// value and false for the end sentinel.
func (e Event[T]) Value() (T, bool) {
	return e.value, e.item
}

// IsEnd reports whether this event is the end sentinel.
func (e Event[T]) IsEnd() bool {
	return !e.item
}

// String implements fmt.Stringer.
func (e Event[T]) String() string {
	if e.item {
		return fmt.Sprintf("Item(%v)", e.value)
	}
	return "End"
}
