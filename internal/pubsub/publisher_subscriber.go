// Package pubsub fans events out from one publisher to any number of subscribers.
package pubsub

import (
	"errors"
	"sync"

	"github.com/mytube/mytube/generic"
)

const DefaultSubscriberBufSize = 16

var (
	ErrPublisherClosed = errors.New("publisher closed")
)

type Publisher[T any] struct {
	mu          sync.Mutex
	subscribers generic.Set[*channel[T]]
	closed      bool
}

func NewPublisher[T any]() *Publisher[T] {
	return &Publisher[T]{subscribers: generic.NewSet[*channel[T]]()}
}

// Subscribe adds a subscriber with the given buffer size (DefaultSubscriberBufSize if not positive).
func (p *Publisher[T]) Subscribe(bufSize int) (Subscription[T], error) {
	if bufSize <= 0 {
		bufSize = DefaultSubscriberBufSize
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	s := newChannel[T](bufSize)
	p.subscribers.Add(s)
	return s, nil
}

// Send delivers the value to every subscriber, waiting for each one to accept it or close. Returns false if the
// publisher is closed.
func (p *Publisher[T]) Send(msg T) bool {
	subscribers, ok := p.snapshot()
	if !ok {
		return false
	}
	for _, s := range subscribers {
		if !s.send(msg) {
			p.unsubscribe(s)
		}
	}
	return true
}

// Offer delivers the value to every subscriber with room for it, dropping it for the rest. It never blocks, so it
// suits frequent updates where only the latest value matters. Returns the number of subscribers that got it.
func (p *Publisher[T]) Offer(msg T) int {
	subscribers, _ := p.snapshot()
	delivered := 0
	for _, s := range subscribers {
		sent, open := s.trySend(msg)
		if sent {
			delivered++
		} else if !open {
			p.unsubscribe(s)
		}
	}
	return delivered
}

// Count returns how many subscribers are still open.
func (p *Publisher[T]) Count() int {
	subscribers, _ := p.snapshot()
	count := 0
	for _, s := range subscribers {
		if !s.isClosed() {
			count++
		}
	}
	return count
}

// Close idempotently shuts down the publisher, closing all subscribers too.
func (p *Publisher[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	subscribers := p.subscribers
	p.subscribers = generic.NewSet[*channel[T]]()
	p.mu.Unlock()
	// Closing a subscriber unblocks any Send still waiting on it
	for s := range subscribers {
		s.Close()
	}
}

func (p *Publisher[T]) snapshot() ([]*channel[T], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, false
	}
	subscribers := make([]*channel[T], 0, p.subscribers.Count())
	for s := range p.subscribers {
		subscribers = append(subscribers, s)
	}
	return subscribers, true
}

func (p *Publisher[T]) unsubscribe(s *channel[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers.Remove(s)
}
