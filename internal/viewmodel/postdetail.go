package viewmodel

import (
	"context"
	"strings"
	"time"

	"ember/internal/identity"
	"ember/internal/models"
	"ember/internal/observability"
	"ember/internal/stream"

	"github.com/google/uuid"
)

// CommentsRepository is the slice of the comment repository the detail
// screen needs.
type CommentsRepository interface {
	Observe(ctx context.Context, postID string) *stream.Subscription[[]models.Comment]
}

// CommentAdder is the write half of the comments adapter.
type CommentAdder interface {
	Add(ctx context.Context, postID string, comment models.Comment) error
}

// PrincipalSource yields the currently signed-in principal, nil when signed
// out.
type PrincipalSource interface {
	Current() *identity.Principal
}

// CommentsState is the detail screen's comment list state, oldest first.
type CommentsState struct {
	Comments []models.Comment
	Loading  bool
}

// PostDetailViewModel drives one post's detail screen: its live comment
// list and the comment composer.
type PostDetailViewModel struct {
	postID string
	repo   CommentsRepository
	adder  CommentAdder
	auth   PrincipalSource
	now    func() time.Time
	newID  func() string

	comments *stream.State[CommentsState]
	input    *stream.State[string]
	sending  *stream.State[bool]
	log      *observability.Logger
}

// NewPostDetailViewModel creates the view model for one post.
func NewPostDetailViewModel(postID string, repo CommentsRepository, adder CommentAdder, auth PrincipalSource) *PostDetailViewModel {
	return &PostDetailViewModel{
		postID:   postID,
		repo:     repo,
		adder:    adder,
		auth:     auth,
		now:      time.Now,
		newID:    uuid.NewString,
		comments: stream.NewState(CommentsState{Loading: true}),
		input:    stream.NewState(""),
		sending:  stream.NewState(false),
		log:      observability.Component("viewmodel.postdetail"),
	}
}

// Comments exposes the comment list state.
func (vm *PostDetailViewModel) Comments() *stream.State[CommentsState] {
	return vm.comments
}

// Input exposes the composer text.
func (vm *PostDetailViewModel) Input() *stream.State[string] {
	return vm.input
}

// SetInput updates the composer text.
func (vm *PostDetailViewModel) SetInput(text string) {
	vm.input.Set(text)
}

// Sending reports whether a comment write is currently pending.
func (vm *PostDetailViewModel) Sending() *stream.State[bool] {
	return vm.sending
}

// Start subscribes to this post's comment stream until ctx ends. A listener
// failure stops emissions silently; the list keeps its last value.
func (vm *PostDetailViewModel) Start(ctx context.Context) {
	sub := vm.repo.Observe(ctx, vm.postID)
	go func() {
		for ev := range sub.Events() {
			if ev.Err != nil {
				vm.log.Warn("comment stream stopped", "post", vm.postID, "error", ev.Err)
				return
			}
			vm.comments.Set(CommentsState{Comments: ev.Value})
		}
	}()
}

// SubmitComment publishes the composer text as a comment. Blank text or a
// missing principal is a deliberate soft-fail no-op. The sending flag is
// cleared on every exit path; the input clears on any real attempt.
func (vm *PostDetailViewModel) SubmitComment(ctx context.Context) {
	text := strings.TrimSpace(vm.input.Get())
	principal := vm.auth.Current()
	if text == "" || principal == nil {
		return
	}

	vm.sending.Set(true)
	defer vm.sending.Set(false)
	vm.input.Set("")

	author := models.AuthorFromDisplayName(principal.ID, principal.DisplayName)
	comment := models.Comment{
		ID:        vm.newID(),
		Content:   text,
		Timestamp: vm.now().UnixMilli(),
		Author:    &author,
	}
	if err := vm.adder.Add(ctx, vm.postID, comment); err != nil {
		// No retry; the user may resubmit.
		vm.log.Warn("comment submit failed", "post", vm.postID, "error", err)
	}
}
