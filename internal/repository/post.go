// Package repository provides the single-source-of-truth stream per entity
// collection. Each repository shares one backend listener among all of its
// subscribers: the listener starts lazily with the first subscriber and is
// torn down a grace delay after the last one detaches, so rapid
// re-subscription (screen rotation) does not churn the backend.
package repository

import (
	"context"
	"time"

	"ember/internal/models"
	"ember/internal/stream"
)

// PostsSource is the slice of the posts data-source adapter the repository
// needs.
type PostsSource interface {
	Observe(ctx context.Context) *stream.Subscription[[]models.Post]
}

// PostRepository exposes one long-lived stream of the post list, ordered by
// timestamp descending. It does not transform data; it only applies the
// sharing policy.
type PostRepository struct {
	shared *stream.Shared[[]models.Post]
}

// NewPostRepository creates the repository. A grace of 0 uses the default.
func NewPostRepository(source PostsSource, grace time.Duration) *PostRepository {
	return &PostRepository{
		shared: stream.NewShared(grace, func(ctx context.Context) *stream.Subscription[[]models.Post] {
			return source.Observe(ctx)
		}),
	}
}

// ObserveAll subscribes to the shared post list stream. The subscription is
// released when ctx ends.
func (r *PostRepository) ObserveAll(ctx context.Context) *stream.Subscription[[]models.Post] {
	return r.shared.Subscribe(ctx)
}

// ListenerActive reports whether the backend listener is currently attached.
func (r *PostRepository) ListenerActive() bool {
	return r.shared.Active()
}
