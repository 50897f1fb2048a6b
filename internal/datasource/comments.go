package datasource

import (
	"context"

	"ember/internal/docstore"
	"ember/internal/models"
	"ember/internal/stream"
)

// Comments is the data-source adapter for the per-post comments
// sub-collection. Streams for two different posts are fully independent
// backend subscriptions.
type Comments struct {
	store *docstore.Store
}

// NewComments creates the comments adapter.
func NewComments(store *docstore.Store) *Comments {
	return &Comments{store: store}
}

func commentsCollection(postID string) string {
	return "posts/" + postID + "/comments"
}

// Observe returns a live stream of the complete comment list for one post,
// ordered by timestamp ascending (oldest first).
func (c *Comments) Observe(ctx context.Context, postID string) *stream.Subscription[[]models.Comment] {
	docs := c.store.Listen(ctx, commentsCollection(postID), fieldTimestamp, docstore.Asc).Subscribe(ctx)
	out := stream.NewSource[[]models.Comment]()

	go func() {
		for ev := range docs.Events() {
			if ev.Err != nil {
				out.Fail(ev.Err)
				return
			}
			out.Emit(decodeComments(ev.Value))
		}
	}()

	return out.Subscribe(ctx)
}

// Add persists one comment under the given post.
func (c *Comments) Add(ctx context.Context, postID string, comment models.Comment) error {
	if postID == "" {
		return models.NewValidationError("post id is required")
	}
	if comment.ID == "" {
		return models.NewValidationError("comment id is required")
	}
	if comment.Content == "" {
		return models.NewValidationError("comment content is required")
	}
	return c.store.Set(ctx, commentsCollection(postID), comment.ID, encodeComment(comment))
}

func decodeComments(docs []docstore.Document) []models.Comment {
	comments := make([]models.Comment, 0, len(docs))
	for _, doc := range docs {
		if comment, ok := decodeComment(doc); ok {
			comments = append(comments, comment)
		}
	}
	return comments
}

func decodeComment(doc docstore.Document) (models.Comment, bool) {
	comment := models.Comment{
		ID:        doc.String("id"),
		Content:   doc.String("content"),
		Timestamp: doc.Int64(fieldTimestamp),
	}
	if comment.ID == "" {
		comment.ID = doc.ID
	}
	if comment.ID == "" || comment.Content == "" {
		return models.Comment{}, false
	}
	comment.Author = decodeAuthor(doc)
	return comment, true
}

func encodeComment(comment models.Comment) map[string]any {
	fields := map[string]any{
		"id":           comment.ID,
		"content":      comment.Content,
		fieldTimestamp: comment.Timestamp,
	}
	encodeAuthor(fields, comment.Author)
	return fields
}
