// Package sync_ has small generic helpers on top of the standard sync package.
package sync_

import "sync"

// RWMutexed guards a value, only giving access to it while the lock is held.
type RWMutexed[T any] struct {
	mu    sync.RWMutex
	value T
}

func NewRWMutexed[T any](value T) *RWMutexed[T] {
	return &RWMutexed[T]{value: value}
}

// Locked runs f with the write lock held.
func (m *RWMutexed[T]) Locked(f func(T) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(m.value)
}

// RLocked runs f with the read lock held. f must not modify the value.
func (m *RWMutexed[T]) RLocked(f func(T) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return f(m.value)
}

// Update replaces the value with the result of f, under the write lock.
func (m *RWMutexed[T]) Update(f func(T) T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = f(m.value)
}

func (m *RWMutexed[T]) Get() T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}
