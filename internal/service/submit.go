// Package service implements the multi-step write paths between view models
// and the data-source adapters.
package service

import (
	"bytes"
	"context"
	"strings"
	"time"

	"ember/internal/blob"
	"ember/internal/identity"
	"ember/internal/media"
	"ember/internal/models"
	"ember/internal/observability"

	"github.com/google/uuid"
)

// MediaFile is a local file selected for upload.
type MediaFile struct {
	Name string
	Data []byte
}

// PostAdder is the slice of the posts adapter the submitter needs.
type PostAdder interface {
	Add(ctx context.Context, post models.Post) error
}

// PrincipalSource yields the currently signed-in principal, nil when signed
// out.
type PrincipalSource interface {
	Current() *identity.Principal
}

// PostSubmitter performs the post submission write path: authenticate,
// upload media, stamp author and timestamp, persist. Failures surface as
// typed errors; nothing is retried automatically and there is no rollback.
// Resubmitting with a new id is the caller's recovery path.
type PostSubmitter struct {
	posts PostAdder
	blobs blob.Store
	auth  PrincipalSource
	now   func() time.Time
	log   *observability.Logger
}

// NewPostSubmitter creates the submitter.
func NewPostSubmitter(posts PostAdder, blobs blob.Store, auth PrincipalSource) *PostSubmitter {
	return &PostSubmitter{
		posts: posts,
		blobs: blobs,
		auth:  auth,
		now:   time.Now,
		log:   observability.Component("service.submit"),
	}
}

// SubmitPostInput is one submission attempt. Media is optional.
type SubmitPostInput struct {
	Title       string
	Description string
	Media       *MediaFile
}

// Submit runs the write path and returns the new post's id.
func (s *PostSubmitter) Submit(ctx context.Context, in SubmitPostInput) (string, error) {
	principal := s.auth.Current()
	if principal == nil {
		return "", models.NewUnauthenticatedError("sign in to publish a post")
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", models.NewValidationError("title is required")
	}

	id := uuid.NewString()

	photoURL := ""
	if in.Media != nil {
		url, err := s.uploadMedia(ctx, id, in.Media)
		if err != nil {
			return "", models.NewTransportError("media upload failed", err)
		}
		photoURL = url
	}

	author := models.AuthorFromDisplayName(principal.ID, principal.DisplayName)
	post := models.Post{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		PhotoURL:    photoURL,
		Timestamp:   s.now().UnixMilli(),
		Author:      &author,
	}

	if err := s.posts.Add(ctx, post); err != nil {
		return "", err
	}
	s.log.Info("post submitted", "id", id, "has_media", in.Media != nil)
	return id, nil
}

// uploadMedia stores the original blob under a path keyed by the post id and
// returns its durable URL. A webp thumbnail is written alongside on a
// best-effort basis; thumbnail failures never fail the submission.
func (s *PostSubmitter) uploadMedia(ctx context.Context, postID string, file *MediaFile) (string, error) {
	ext := media.ExtensionFor(file.Name, file.Data)
	url, err := s.blobs.Put(ctx, "posts/"+postID+"."+ext, bytes.NewReader(file.Data))
	if err != nil {
		return "", err
	}

	if thumb, err := media.Thumbnail(file.Data); err != nil {
		s.log.Warn("thumbnail generation failed", "post", postID, "error", err)
	} else if _, err := s.blobs.Put(ctx, "posts/"+postID+"_thumb.webp", bytes.NewReader(thumb)); err != nil {
		s.log.Warn("thumbnail upload failed", "post", postID, "error", err)
	}

	return url, nil
}
