// Package viewmodel holds the UI-facing reactive state, one view model per
// screen. A view model subscribes to repository streams, validates and
// dispatches user actions, and releases every subscription when the owning
// scope ends.
package viewmodel

import (
	"context"

	"ember/internal/models"
	"ember/internal/observability"
	"ember/internal/stream"
)

// PostsRepository is the slice of the post repository the feed screen needs.
type PostsRepository interface {
	ObserveAll(ctx context.Context) *stream.Subscription[[]models.Post]
}

// FeedState is the feed screen's render state. An empty Posts slice with no
// error is the "no items yet" state, not a failure.
type FeedState struct {
	Posts   []models.Post
	Loading bool
	Err     error
}

// FeedViewModel drives the feed screen: the live post list, newest first.
type FeedViewModel struct {
	repo  PostsRepository
	state *stream.State[FeedState]
	log   *observability.Logger
}

// NewFeedViewModel creates the view model in the loading state.
func NewFeedViewModel(repo PostsRepository) *FeedViewModel {
	return &FeedViewModel{
		repo:  repo,
		state: stream.NewState(FeedState{Loading: true}),
		log:   observability.Component("viewmodel.feed"),
	}
}

// State exposes the render state.
func (vm *FeedViewModel) State() *stream.State[FeedState] {
	return vm.state
}

// Start subscribes to the post list until ctx ends. A listener failure is
// surfaced through the state; re-entering the screen starts a fresh
// subscription.
func (vm *FeedViewModel) Start(ctx context.Context) {
	sub := vm.repo.ObserveAll(ctx)
	go func() {
		for ev := range sub.Events() {
			if ev.Err != nil {
				err := ev.Err
				vm.log.Warn("post stream failed", "error", err)
				vm.state.Update(func(st FeedState) FeedState {
					st.Loading = false
					st.Err = err
					return st
				})
				return
			}
			vm.state.Set(FeedState{Posts: ev.Value})
		}
	}()
}
