// Package stream provides the reactive primitives the application is built
// on: single-writer live streams, observable state containers, and shared
// reference-counted subscriptions with a teardown grace delay.
//
// A live stream yields a new complete value every time the underlying state
// changes, until cancelled or it errors. Delivery is conflated: a slow
// subscriber observes the latest value, each emission fully superseding the
// prior one.
package stream

import (
	"context"
	"sync"
)

// Event is a single delivery on a live stream. Err is set only on the final,
// terminating event.
type Event[T any] struct {
	Value T
	Err   error
}

// Source is a single-writer live stream. One owner calls Emit and Fail; any
// number of subscribers observe. New subscribers immediately receive the
// last emitted value, if any.
type Source[T any] struct {
	mu      sync.Mutex
	subs    map[*Subscription[T]]struct{}
	last    T
	hasLast bool
	err     error
	done    bool
}

// NewSource creates an empty live stream.
func NewSource[T any]() *Source[T] {
	return &Source[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Emit replaces the stream's current value and delivers it to all
// subscribers. Emissions after Fail are ignored.
func (s *Source[T]) Emit(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.last = v
	s.hasLast = true
	for sub := range s.subs {
		sub.deliver(Event[T]{Value: v})
	}
}

// Fail terminates the stream with err. Every subscriber receives one final
// error event and then its channel is closed. The source does not retry;
// resubscription is the caller's responsibility.
func (s *Source[T]) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.err = err
	s.done = true
	for sub := range s.subs {
		sub.deliver(Event[T]{Err: err})
		sub.terminate()
	}
	s.subs = make(map[*Subscription[T]]struct{})
}

// Terminated reports whether the stream has failed.
func (s *Source[T]) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Subscribe attaches a new subscriber. The subscription is cancelled
// automatically when ctx ends; the release runs on every exit path.
func (s *Source[T]) Subscribe(ctx context.Context) *Subscription[T] {
	return s.subscribe(ctx, nil)
}

func (s *Source[T]) subscribe(ctx context.Context, onRelease func()) *Subscription[T] {
	sub := &Subscription[T]{
		src:       s,
		ch:        make(chan Event[T], 1),
		stop:      make(chan struct{}),
		onRelease: onRelease,
	}

	s.mu.Lock()
	if s.done {
		sub.deliver(Event[T]{Err: s.err})
		sub.terminate()
		s.mu.Unlock()
		return sub
	}
	if s.hasLast {
		sub.deliver(Event[T]{Value: s.last})
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Cancel()
		case <-sub.stop:
		}
	}()

	return sub
}

// Subscription is one subscriber's view of a live stream.
type Subscription[T any] struct {
	src       *Source[T]
	ch        chan Event[T]
	stop      chan struct{}
	onRelease func()

	mu     sync.Mutex
	closed bool
}

// Events returns the delivery channel. It is closed when the subscription is
// cancelled or the stream terminates.
func (s *Subscription[T]) Events() <-chan Event[T] {
	return s.ch
}

// Cancel detaches the subscriber and closes its channel. Safe to call more
// than once and concurrently with stream activity.
func (s *Subscription[T]) Cancel() {
	s.src.mu.Lock()
	delete(s.src.subs, s)
	s.src.mu.Unlock()
	s.terminate()
}

// deliver pushes an event, conflating when the subscriber has not yet
// consumed the previous one. Caller holds the source lock.
func (s *Subscription[T]) deliver(ev Event[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *Subscription[T]) terminate() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	close(s.stop)
	s.mu.Unlock()

	// Run asynchronously: terminate can be reached while the source lock is
	// held, and the release callback takes locks of its own.
	if s.onRelease != nil {
		go s.onRelease()
	}
}
