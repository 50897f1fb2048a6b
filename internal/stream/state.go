package stream

import (
	"context"
	"sync"
)

// State is an observable value container with a single writer and any number
// of watchers. Reads never block; watchers are conflated to the latest value.
type State[T any] struct {
	mu       sync.Mutex
	v        T
	watchers map[chan T]struct{}
}

// NewState creates a State holding initial.
func NewState[T any](initial T) *State[T] {
	return &State[T]{v: initial, watchers: make(map[chan T]struct{})}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// Set replaces the current value and notifies all watchers.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
	for ch := range s.watchers {
		push(ch, v)
	}
}

// Update applies f to the current value under the writer lock.
func (s *State[T]) Update(f func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = f(s.v)
	for ch := range s.watchers {
		push(ch, s.v)
	}
}

// Watch returns a channel that first yields the current value and then every
// subsequent one until ctx ends, at which point it is closed.
func (s *State[T]) Watch(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	ch <- s.v
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

// push delivers v on ch, dropping the unconsumed previous value if the
// watcher is behind.
func push[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
