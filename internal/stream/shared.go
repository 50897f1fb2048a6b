package stream

import (
	"context"
	"sync"
	"time"
)

// DefaultGrace is the teardown delay applied after the last subscriber
// detaches, so a quickly re-attaching subscriber (screen rotation) reuses
// the running upstream instead of churning the backend listener.
const DefaultGrace = 5 * time.Second

// Shared turns an upstream subscription factory into one shared live stream.
// The upstream is started lazily on the first subscriber and stopped a grace
// delay after the last one detaches. A terminated upstream (listener error)
// is restarted on the next subscription.
type Shared[T any] struct {
	mu     sync.Mutex
	start  func(ctx context.Context) *Subscription[T]
	grace  time.Duration
	refs   int
	out    *Source[T]
	cancel context.CancelFunc
	timer  *time.Timer
}

// NewShared creates a Shared over the given upstream factory. A grace of 0
// falls back to DefaultGrace.
func NewShared[T any](grace time.Duration, start func(ctx context.Context) *Subscription[T]) *Shared[T] {
	if grace == 0 {
		grace = DefaultGrace
	}
	return &Shared[T]{start: start, grace: grace}
}

// Subscribe attaches a subscriber to the shared stream, starting or
// restarting the upstream as needed.
func (s *Shared[T]) Subscribe(ctx context.Context) *Subscription[T] {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.out == nil || s.out.Terminated() {
		s.stopLocked()
		s.startLocked()
	}
	out := s.out
	s.refs++
	s.mu.Unlock()

	return out.subscribe(ctx, s.release)
}

// Active reports whether an upstream listener is currently running.
func (s *Shared[T]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Shared[T]) startLocked() {
	out := NewSource[T]()
	ctx, cancel := context.WithCancel(context.Background())
	s.out = out
	s.cancel = cancel

	upstream := s.start(ctx)
	go func() {
		for ev := range upstream.Events() {
			if ev.Err != nil {
				out.Fail(ev.Err)
				return
			}
			out.Emit(ev.Value)
		}
	}()
}

func (s *Shared[T]) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.out = nil
}

func (s *Shared[T]) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs--
	if s.refs > 0 {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.refs == 0 {
			s.stopLocked()
			s.timer = nil
		}
	})
}
