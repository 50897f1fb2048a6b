package repository

import (
	"context"
	"sync"
	"time"

	"ember/internal/models"
	"ember/internal/stream"
)

// CommentsSource is the slice of the comments data-source adapter the
// repository needs.
type CommentsSource interface {
	Observe(ctx context.Context, postID string) *stream.Subscription[[]models.Comment]
}

// CommentRepository shares one comment stream per post id, ordered by
// timestamp ascending. Streams for different posts are independent.
type CommentRepository struct {
	source CommentsSource
	grace  time.Duration

	mu      sync.Mutex
	streams map[string]*stream.Shared[[]models.Comment]
}

// NewCommentRepository creates the repository. A grace of 0 uses the default.
func NewCommentRepository(source CommentsSource, grace time.Duration) *CommentRepository {
	return &CommentRepository{
		source:  source,
		grace:   grace,
		streams: make(map[string]*stream.Shared[[]models.Comment]),
	}
}

// Observe subscribes to the shared comment stream for one post.
func (r *CommentRepository) Observe(ctx context.Context, postID string) *stream.Subscription[[]models.Comment] {
	r.mu.Lock()
	shared, ok := r.streams[postID]
	if !ok {
		shared = stream.NewShared(r.grace, func(ctx context.Context) *stream.Subscription[[]models.Comment] {
			return r.source.Observe(ctx, postID)
		})
		r.streams[postID] = shared
	}
	r.mu.Unlock()

	return shared.Subscribe(ctx)
}
