package viewmodel

import (
	"context"

	"ember/internal/identity"
	"ember/internal/models"
	"ember/internal/observability"
	"ember/internal/stream"
)

// genericSignInError is shown when the provider supplies no message.
const genericSignInError = "Sign-in failed. Please try again."

// AuthProvider is the slice of the identity provider the auth screens need.
type AuthProvider interface {
	Current() *identity.Principal
	Listen(fn func(*identity.Principal)) func()
	SignOut(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// AuthViewModel tracks the authentication state machine. It never assigns
// Authenticated or Unauthenticated locally after a sign-in or sign-out call;
// those transitions arrive exclusively through the provider listener, which
// avoids racing a local write against the backend's confirmation.
type AuthViewModel struct {
	provider AuthProvider
	state    *stream.State[models.AuthState]
	remove   func()
	log      *observability.Logger
}

// NewAuthViewModel creates the view model in the Initial phase.
func NewAuthViewModel(provider AuthProvider) *AuthViewModel {
	return &AuthViewModel{
		provider: provider,
		state:    stream.NewState(models.AuthState{Phase: models.AuthInitial}),
		log:      observability.Component("viewmodel.auth"),
	}
}

// State exposes the auth state.
func (vm *AuthViewModel) State() *stream.State[models.AuthState] {
	return vm.state
}

// Start synchronously reads the current principal, so observers see
// Authenticated or Unauthenticated immediately, then attaches the
// long-lived listener for subsequent external changes (token expiry,
// external sign-out). Pair with Stop on every exit path.
func (vm *AuthViewModel) Start() {
	vm.apply(vm.provider.Current())
	vm.remove = vm.provider.Listen(vm.apply)
}

// Stop detaches the provider listener.
func (vm *AuthViewModel) Stop() {
	if vm.remove != nil {
		vm.remove()
		vm.remove = nil
	}
}

func (vm *AuthViewModel) apply(p *identity.Principal) {
	if p == nil {
		vm.state.Set(models.AuthState{Phase: models.AuthUnauthenticated})
		return
	}
	user := models.AuthorFromDisplayName(p.ID, p.DisplayName)
	vm.state.Set(models.AuthState{Phase: models.AuthAuthenticated, User: &user})
}

// HandleSignInResult consumes the outcome of the interactive sign-in flow.
// On success the state is left alone: the provider listener delivers the
// Authenticated transition. A cancelled flow yields Unauthenticated; an
// error payload yields the error phase with the payload's message.
func (vm *AuthViewModel) HandleSignInResult(res identity.SignInResult) {
	if res.OK {
		return
	}
	if res.Response == nil {
		vm.state.Set(models.AuthState{Phase: models.AuthUnauthenticated})
		return
	}
	msg := res.Response.ErrorMessage
	if msg == "" {
		msg = genericSignInError
	}
	vm.state.Set(models.AuthState{Phase: models.AuthFailed, Message: msg})
}

// ClearError dismisses a sign-in failure, returning to Unauthenticated. It
// is a no-op in any other phase.
func (vm *AuthViewModel) ClearError() {
	vm.state.Update(func(st models.AuthState) models.AuthState {
		if st.Phase != models.AuthFailed {
			return st
		}
		return models.AuthState{Phase: models.AuthUnauthenticated}
	})
}

// SignOut delegates to the provider; the state transition arrives via the
// listener, not by direct assignment here.
func (vm *AuthViewModel) SignOut(ctx context.Context) error {
	return vm.provider.SignOut(ctx)
}

// DeleteAccount delegates to the provider. On success the caller navigates
// away via onSuccess; on failure onError receives a message. The auth state
// itself is not forced by this path.
func (vm *AuthViewModel) DeleteAccount(ctx context.Context, onSuccess func(), onError func(string)) {
	if err := vm.provider.DeleteAccount(ctx); err != nil {
		vm.log.Warn("account deletion failed", "error", err)
		onError(err.Error())
		return
	}
	onSuccess()
}
