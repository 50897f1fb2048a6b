package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream hands out subscriptions from a fresh Source per start and
// counts starts.
type fakeUpstream struct {
	mu     sync.Mutex
	starts int32
	src    *Source[int]
}

func (f *fakeUpstream) start(ctx context.Context) *Subscription[int] {
	atomic.AddInt32(&f.starts, 1)
	f.mu.Lock()
	f.src = NewSource[int]()
	src := f.src
	f.mu.Unlock()
	return src.Subscribe(ctx)
}

func (f *fakeUpstream) current() *Source[int] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.src
}

func TestShared_SingleUpstreamForManySubscribers(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{}
	shared := NewShared(time.Hour, up.start)

	ctx := context.Background()
	a := shared.Subscribe(ctx)
	b := shared.Subscribe(ctx)

	assert.Equal(t, int32(1), atomic.LoadInt32(&up.starts))

	up.current().Emit(99)
	assert.Equal(t, 99, recvEvent(t, a).Value)
	assert.Equal(t, 99, recvEvent(t, b).Value)
}

func TestShared_TearsDownAfterGraceDelay(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{}
	shared := NewShared(30*time.Millisecond, up.start)

	sub := shared.Subscribe(context.Background())
	require.True(t, shared.Active())

	sub.Cancel()
	requireClosed(t, sub)

	// Still running during the grace window, stopped after it.
	require.Eventually(t, func() bool { return !shared.Active() }, 2*time.Second, 10*time.Millisecond)
}

func TestShared_RapidResubscribeReusesUpstream(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{}
	shared := NewShared(time.Hour, up.start)

	first := shared.Subscribe(context.Background())
	first.Cancel()
	requireClosed(t, first)

	// Re-subscribing within the grace window must not start a second
	// backend listener.
	second := shared.Subscribe(context.Background())
	defer second.Cancel()

	assert.Equal(t, int32(1), atomic.LoadInt32(&up.starts))
	assert.True(t, shared.Active())
}

func TestShared_RestartsAfterUpstreamFailure(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{}
	shared := NewShared(time.Hour, up.start)

	sub := shared.Subscribe(context.Background())
	boom := errors.New("permission denied")
	up.current().Fail(boom)

	assert.ErrorIs(t, recvEvent(t, sub).Err, boom)
	requireClosed(t, sub)

	// Screen re-entry resubscribes and gets a fresh listener.
	require.Eventually(t, func() bool {
		retry := shared.Subscribe(context.Background())
		defer retry.Cancel()
		return atomic.LoadInt32(&up.starts) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
