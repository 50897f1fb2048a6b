// Package datasource adapts backend document snapshots into domain records.
// Each collection is exposed as a live stream of complete ordered lists; a
// snapshot decode drops individual malformed records rather than failing the
// stream, and missing optional fields map to empty values.
package datasource

import (
	"context"

	"ember/internal/docstore"
	"ember/internal/models"
	"ember/internal/stream"
)

const (
	colPosts = "posts"

	fieldTimestamp = "timestamp"
)

// Posts is the data-source adapter for the top-level posts collection.
type Posts struct {
	store *docstore.Store
}

// NewPosts creates the posts adapter.
func NewPosts(store *docstore.Store) *Posts {
	return &Posts{store: store}
}

// Observe returns a live stream of the complete post list ordered by
// timestamp descending. Each emission fully supersedes the prior one. A
// listener failure terminates the stream; resubscribing is the caller's
// responsibility.
func (p *Posts) Observe(ctx context.Context) *stream.Subscription[[]models.Post] {
	docs := p.store.Listen(ctx, colPosts, fieldTimestamp, docstore.Desc).Subscribe(ctx)
	out := stream.NewSource[[]models.Post]()

	go func() {
		for ev := range docs.Events() {
			if ev.Err != nil {
				out.Fail(ev.Err)
				return
			}
			out.Emit(decodePosts(ev.Value))
		}
	}()

	return out.Subscribe(ctx)
}

// Add persists one post. There is no optimistic local insertion; the record
// becomes visible when the listener's next snapshot arrives.
func (p *Posts) Add(ctx context.Context, post models.Post) error {
	if post.ID == "" {
		return models.NewValidationError("post id is required")
	}
	if post.Title == "" {
		return models.NewValidationError("post title is required")
	}
	return p.store.Set(ctx, colPosts, post.ID, encodePost(post))
}

func decodePosts(docs []docstore.Document) []models.Post {
	posts := make([]models.Post, 0, len(docs))
	for _, doc := range docs {
		if post, ok := decodePost(doc); ok {
			posts = append(posts, post)
		}
	}
	return posts
}

func decodePost(doc docstore.Document) (models.Post, bool) {
	post := models.Post{
		ID:          doc.String("id"),
		Title:       doc.String("title"),
		Description: doc.String("description"),
		PhotoURL:    doc.String("photoUrl"),
		Timestamp:   doc.Int64(fieldTimestamp),
	}
	if post.ID == "" {
		post.ID = doc.ID
	}
	if post.ID == "" || post.Title == "" {
		return models.Post{}, false
	}
	post.Author = decodeAuthor(doc)
	return post, true
}

func encodePost(post models.Post) map[string]any {
	fields := map[string]any{
		"id":           post.ID,
		"title":        post.Title,
		fieldTimestamp: post.Timestamp,
	}
	if post.Description != "" {
		fields["description"] = post.Description
	}
	if post.PhotoURL != "" {
		fields["photoUrl"] = post.PhotoURL
	}
	encodeAuthor(fields, post.Author)
	return fields
}

// decodeAuthor rebuilds the denormalized author snapshot, nil when
// authorship was not recorded.
func decodeAuthor(doc docstore.Document) *models.User {
	id := doc.String("authorId")
	if id == "" {
		return nil
	}
	return &models.User{
		ID:        id,
		Firstname: doc.String("authorFirstname"),
		Lastname:  doc.String("authorLastname"),
	}
}

func encodeAuthor(fields map[string]any, author *models.User) {
	if author == nil {
		return
	}
	fields["authorId"] = author.ID
	fields["authorFirstname"] = author.Firstname
	fields["authorLastname"] = author.Lastname
}
