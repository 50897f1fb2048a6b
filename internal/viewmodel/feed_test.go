package viewmodel

import (
	"context"
	"errors"
	"testing"
	"time"

	"ember/internal/models"
	"ember/internal/stream"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postsRepoStub struct {
	src *stream.Source[[]models.Post]
}

func newPostsRepoStub() *postsRepoStub {
	return &postsRepoStub{src: stream.NewSource[[]models.Post]()}
}

func (s *postsRepoStub) ObserveAll(ctx context.Context) *stream.Subscription[[]models.Post] {
	return s.src.Subscribe(ctx)
}

func awaitState[T any](t *testing.T, st *stream.State[T], ok func(T) bool) T {
	t.Helper()
	var last T
	require.Eventually(t, func() bool {
		last = st.Get()
		return ok(last)
	}, 2*time.Second, 10*time.Millisecond)
	return last
}

func fakePosts(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			ID:        gofakeit.UUID(),
			Title:     gofakeit.Sentence(3),
			Timestamp: int64(1000 - i),
			Author:    &models.User{ID: gofakeit.UUID(), Firstname: gofakeit.FirstName()},
		}
	}
	return posts
}

func TestFeedViewModel_StartsLoading(t *testing.T) {
	t.Parallel()

	vm := NewFeedViewModel(newPostsRepoStub())
	assert.True(t, vm.State().Get().Loading)
}

func TestFeedViewModel_EmptyListIsNotAnError(t *testing.T) {
	t.Parallel()

	repo := newPostsRepoStub()
	vm := NewFeedViewModel(repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vm.Start(ctx)
	repo.src.Emit([]models.Post{})

	st := awaitState(t, vm.State(), func(st FeedState) bool { return !st.Loading })
	assert.Empty(t, st.Posts)
	assert.NoError(t, st.Err)
}

func TestFeedViewModel_MirrorsEmissions(t *testing.T) {
	t.Parallel()

	repo := newPostsRepoStub()
	vm := NewFeedViewModel(repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vm.Start(ctx)
	posts := fakePosts(3)
	repo.src.Emit(posts)

	st := awaitState(t, vm.State(), func(st FeedState) bool { return len(st.Posts) == 3 })
	assert.Equal(t, posts, st.Posts)
}

func TestFeedViewModel_SurfacesListenerFailure(t *testing.T) {
	t.Parallel()

	repo := newPostsRepoStub()
	vm := NewFeedViewModel(repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vm.Start(ctx)
	boom := errors.New("permission denied")
	repo.src.Fail(boom)

	st := awaitState(t, vm.State(), func(st FeedState) bool { return st.Err != nil })
	assert.ErrorIs(t, st.Err, boom)
	assert.False(t, st.Loading)
}
