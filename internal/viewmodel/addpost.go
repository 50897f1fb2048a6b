package viewmodel

import (
	"context"
	"strings"

	"ember/internal/models"
	"ember/internal/observability"
	"ember/internal/service"
	"ember/internal/stream"
)

// Submitter runs the post submission write path.
type Submitter interface {
	Submit(ctx context.Context, in service.SubmitPostInput) (string, error)
}

// AddPostViewModel drives the add-post screen. Title validation happens
// here, before the write path: a blank title never reaches the submitter.
type AddPostViewModel struct {
	submitter  Submitter
	titleError *stream.State[string]
	submitting *stream.State[bool]
	log        *observability.Logger
}

// NewAddPostViewModel creates the view model.
func NewAddPostViewModel(submitter Submitter) *AddPostViewModel {
	return &AddPostViewModel{
		submitter:  submitter,
		titleError: stream.NewState(""),
		submitting: stream.NewState(false),
		log:        observability.Component("viewmodel.addpost"),
	}
}

// TitleError is the inline validation message next to the title field, ""
// when the field is acceptable.
func (vm *AddPostViewModel) TitleError() *stream.State[string] {
	return vm.titleError
}

// Submitting reports whether a submission is currently pending.
func (vm *AddPostViewModel) Submitting() *stream.State[bool] {
	return vm.submitting
}

// Submit validates and dispatches one submission, returning the new post id.
// Errors beyond validation come back typed for the screen to surface as a
// transient message; the user re-triggers the action to retry.
func (vm *AddPostViewModel) Submit(ctx context.Context, title, description string, mediaFile *service.MediaFile) (string, error) {
	if strings.TrimSpace(title) == "" {
		vm.titleError.Set("Title is required")
		return "", models.NewValidationError("title is required")
	}
	vm.titleError.Set("")

	vm.submitting.Set(true)
	defer vm.submitting.Set(false)

	id, err := vm.submitter.Submit(ctx, service.SubmitPostInput{
		Title:       title,
		Description: description,
		Media:       mediaFile,
	})
	if err != nil {
		vm.log.Warn("post submit failed", "error", err)
		return "", err
	}
	return id, nil
}
