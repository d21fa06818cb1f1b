// Package platform holds the observable platform state media queries depend
// on: the window size and the system color scheme.
//
// Each value lives in a Signal. Set notifies subscribers synchronously on the
// caller's goroutine, so a bubbletea Update loop that calls Set keeps every
// recomputation on the UI goroutine.
package platform

import "sync"

// Signal is a value that notifies subscribers when it changes.
type Signal[T comparable] struct {
	mu          sync.Mutex
	value       T
	nextID      uint64
	subscribers map[uint64]func(T)
}

// NewSignal returns a Signal holding initial.
func NewSignal[T comparable](initial T) *Signal[T] {
	return &Signal[T]{value: initial, subscribers: make(map[uint64]func(T))}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and notifies subscribers if it differs from the current value.
// It reports whether subscribers were notified.
func (s *Signal[T]) Set(v T) bool {
	s.mu.Lock()
	if s.value == v {
		s.mu.Unlock()
		return false
	}
	s.value = v
	listeners := make([]func(T), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
	return true
}

// Subscribe registers fn and returns a function that removes it. The returned
// function is safe to call more than once.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Signal[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}
