package sync_

import "sync"

// Event is a one-way flag that goroutines can wait on, like a closed channel that can be checked without blocking.
type Event struct {
	mu    sync.Mutex
	ch    chan struct{}
	value bool
}

func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Set marks the Event (idempotent), notifying any waiters. Returns true if the state was changed.
func (e *Event) Set() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.value {
		return false
	}
	e.value = true
	close(e.ch)
	return true
}

// Wait returns a channel that will close when the Event is set (which may be immediately).
func (e *Event) Wait() <-chan struct{} {
	return e.ch
}
