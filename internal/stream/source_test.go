package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent[T any](t *testing.T, sub *Subscription[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event[T]{}
	}
}

func requireClosed[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	select {
	case _, ok := <-sub.Events():
		require.False(t, ok, "expected closed channel")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func TestSource_EmitAndReplay(t *testing.T) {
	t.Parallel()

	src := NewSource[int]()
	ctx := context.Background()

	first := src.Subscribe(ctx)
	src.Emit(1)
	assert.Equal(t, 1, recvEvent(t, first).Value)

	// A late subscriber immediately receives the last emission.
	late := src.Subscribe(ctx)
	assert.Equal(t, 1, recvEvent(t, late).Value)

	src.Emit(2)
	assert.Equal(t, 2, recvEvent(t, first).Value)
	assert.Equal(t, 2, recvEvent(t, late).Value)
}

func TestSource_ConflatesToLatest(t *testing.T) {
	t.Parallel()

	src := NewSource[int]()
	sub := src.Subscribe(context.Background())

	// Nobody reading: each emission supersedes the prior one.
	src.Emit(1)
	src.Emit(2)
	src.Emit(3)

	assert.Equal(t, 3, recvEvent(t, sub).Value)
}

func TestSource_FailTerminates(t *testing.T) {
	t.Parallel()

	src := NewSource[int]()
	sub := src.Subscribe(context.Background())

	boom := errors.New("listener failed")
	src.Fail(boom)

	ev := recvEvent(t, sub)
	assert.ErrorIs(t, ev.Err, boom)
	requireClosed(t, sub)
	assert.True(t, src.Terminated())

	// Emissions after termination are ignored.
	src.Emit(42)

	// A subscriber arriving after the failure sees the error immediately.
	late := src.Subscribe(context.Background())
	assert.ErrorIs(t, recvEvent(t, late).Err, boom)
	requireClosed(t, late)
}

func TestSource_ContextCancelReleasesSubscription(t *testing.T) {
	t.Parallel()

	src := NewSource[int]()
	ctx, cancel := context.WithCancel(context.Background())
	sub := src.Subscribe(ctx)

	cancel()
	requireClosed(t, sub)
}

func TestSource_CancelIsIdempotent(t *testing.T) {
	t.Parallel()

	src := NewSource[int]()
	sub := src.Subscribe(context.Background())
	sub.Cancel()
	sub.Cancel()
	requireClosed(t, sub)

	// The source keeps working for others.
	other := src.Subscribe(context.Background())
	src.Emit(7)
	assert.Equal(t, 7, recvEvent(t, other).Value)
}
