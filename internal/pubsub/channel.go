package pubsub

import (
	"sync"
)

// Subscription is the receiving end of a Publisher.
type Subscription[T any] interface {
	Receive() <-chan T
	// Close ends the subscription. The receive channel is closed once any in-flight sends have given up.
	Close()
}

// channel wraps a primitive `chan` in some concurrency-safe state management.
type channel[T any] struct {
	mu      sync.RWMutex
	ch      chan T
	done    chan struct{}
	closed  bool
	waiting sync.WaitGroup
}

func newChannel[T any](bufSize int) *channel[T] {
	return &channel[T]{
		ch:   make(chan T, bufSize),
		done: make(chan struct{}),
	}
}

func (c *channel[T]) Receive() <-chan T {
	return c.ch
}

// send blocks until the message is buffered or received, returning false if the channel is closed first.
func (c *channel[T]) send(msg T) bool {
	// Either the send is never attempted, or Close() waits until it has finished
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false
	}
	c.waiting.Add(1)
	defer c.waiting.Done()
	c.mu.RUnlock()

	select {
	case c.ch <- msg:
		return true
	case <-c.done:
		return false
	}
}

// trySend never blocks; the message is dropped if the buffer is full.
func (c *channel[T]) trySend(msg T) (sent bool, open bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false, false
	}
	select {
	case c.ch <- msg:
		return true, true
	default:
		return false, true
	}
}

func (c *channel[T]) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close idempotently ends the channel so that all current and future sends will fail.
func (c *channel[T]) Close() {
	// No new sends can start once we hold the write lock
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	close(c.done)
	c.waiting.Wait()
	close(c.ch)
	c.closed = true
}
