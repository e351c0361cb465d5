package pulse

import "sync"

// Collector buffers items delivered by a stream for synchronous draining.
// Created by Stream.Collect.
type Collector[T any] struct {
	peg   *peg
	mu    sync.Mutex
	items []T
	done  chan struct{}
}

// Wait stalls the calling goroutine until the stream ends, then returns
// every buffered item in delivery order and stops collecting.
func (c *Collector[T]) Wait() []T {
	<-c.done
	return c.drain()
}

// Take returns whatever has been buffered so far, without the stream
// ending, and stops collecting.
func (c *Collector[T]) Take() []T {
	return c.drain()
}

func (c *Collector[T]) drain() []T {
	c.mu.Lock()
	items := c.items
	c.items = nil
	c.mu.Unlock()
	c.peg.release()
	return items
}
