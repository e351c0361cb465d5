package pulse

import "fmt"

// UsageError reports a broken engine invariant.
//
// The propagation engine treats these as programming errors, not recoverable
// conditions: an update into an ended producer means the caller violated the
// single-end contract, and a memory-bearing operation observing an empty
// memory slot means node state was corrupted out-of-band. Both are raised by
// panicking with a *UsageError.
type UsageError struct {
	// Op is the operation that detected the violation (e.g. "update", "fold").
	Op string

	// Message describes the violated invariant.
	Message string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf("pulse: %s: %s", e.Op, e.Message)
}

// errWriteAfterEnd reports a dispatch into a node that has already delivered
// its end sentinel.
func errWriteAfterEnd(op string) *UsageError {
	return &UsageError{
		Op:      op,
		Message: "stream has already ended; no further events may be dispatched",
	}
}

// errMissingMemory reports a memory-bearing operation whose expected memory
// slot was empty when an item arrived.
func errMissingMemory(op string) *UsageError {
	return &UsageError{
		Op:      op,
		Message: "no previous value in memory; node state is corrupted",
	}
}
