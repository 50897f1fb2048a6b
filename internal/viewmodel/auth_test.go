package viewmodel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ember/internal/identity"
	"ember/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authProviderStub drives the listener path by hand.
type authProviderStub struct {
	mu        sync.Mutex
	current   *identity.Principal
	listener  func(*identity.Principal)
	removed   bool
	signOut   error
	deleteErr error
}

func (s *authProviderStub) Current() *identity.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *authProviderStub) Listen(fn func(*identity.Principal)) func() {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.removed = true
		s.listener = nil
		s.mu.Unlock()
	}
}

func (s *authProviderStub) SignOut(context.Context) error {
	if s.signOut != nil {
		return s.signOut
	}
	s.fire(nil)
	return nil
}

func (s *authProviderStub) DeleteAccount(context.Context) error { return s.deleteErr }

func (s *authProviderStub) fire(p *identity.Principal) {
	s.mu.Lock()
	fn := s.listener
	s.current = p
	s.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

func TestAuthViewModel_InitialPhase(t *testing.T) {
	t.Parallel()

	vm := NewAuthViewModel(&authProviderStub{})
	assert.Equal(t, models.AuthInitial, vm.State().Get().Phase)
}

func TestAuthViewModel_StartReadsCurrentSynchronously(t *testing.T) {
	t.Parallel()

	t.Run("signed out", func(t *testing.T) {
		t.Parallel()
		vm := NewAuthViewModel(&authProviderStub{})
		vm.Start()
		defer vm.Stop()
		assert.Equal(t, models.AuthUnauthenticated, vm.State().Get().Phase)
	})

	t.Run("signed in", func(t *testing.T) {
		t.Parallel()
		provider := &authProviderStub{current: &identity.Principal{ID: "u1", DisplayName: "Ada Lovelace"}}
		vm := NewAuthViewModel(provider)
		vm.Start()
		defer vm.Stop()

		st := vm.State().Get()
		assert.Equal(t, models.AuthAuthenticated, st.Phase)
		require.NotNil(t, st.User)
		assert.Equal(t, models.User{ID: "u1", Firstname: "Ada", Lastname: "Lovelace"}, *st.User)
	})
}

func TestAuthViewModel_ListenerDrivesTransitions(t *testing.T) {
	t.Parallel()

	provider := &authProviderStub{}
	vm := NewAuthViewModel(provider)
	vm.Start()
	defer vm.Stop()

	provider.fire(&identity.Principal{ID: "u1", DisplayName: "Ada"})
	assert.Equal(t, models.AuthAuthenticated, vm.State().Get().Phase)

	// External sign-out (token expiry) arrives the same way.
	provider.fire(nil)
	assert.Equal(t, models.AuthUnauthenticated, vm.State().Get().Phase)
}

func TestAuthViewModel_SignInSuccessReliesOnListener(t *testing.T) {
	t.Parallel()

	provider := &authProviderStub{}
	vm := NewAuthViewModel(provider)
	vm.Start()
	defer vm.Stop()

	// The success result itself must not write state; only the provider
	// listener does, avoiding a double-write race.
	vm.HandleSignInResult(identity.SignInResult{OK: true})
	assert.Equal(t, models.AuthUnauthenticated, vm.State().Get().Phase)

	provider.fire(&identity.Principal{ID: "u1", DisplayName: "Ada"})
	assert.Equal(t, models.AuthAuthenticated, vm.State().Get().Phase)
}

func TestAuthViewModel_CancelledSignInIsUnauthenticated(t *testing.T) {
	t.Parallel()

	vm := NewAuthViewModel(&authProviderStub{})
	vm.Start()
	defer vm.Stop()

	vm.HandleSignInResult(identity.Cancelled())

	st := vm.State().Get()
	assert.Equal(t, models.AuthUnauthenticated, st.Phase)
	assert.Empty(t, st.Message)
}

func TestAuthViewModel_SignInErrorCarriesMessage(t *testing.T) {
	t.Parallel()

	vm := NewAuthViewModel(&authProviderStub{})
	vm.Start()
	defer vm.Stop()

	vm.HandleSignInResult(identity.SignInResult{
		Response: &identity.SignInResponse{ErrorMessage: "bad credentials"},
	})

	st := vm.State().Get()
	assert.Equal(t, models.AuthFailed, st.Phase)
	assert.Equal(t, "bad credentials", st.Message)

	// Dismissing the dialog is the only recovery action.
	vm.ClearError()
	assert.Equal(t, models.AuthUnauthenticated, vm.State().Get().Phase)
}

func TestAuthViewModel_SignInErrorDefaultsGenericMessage(t *testing.T) {
	t.Parallel()

	vm := NewAuthViewModel(&authProviderStub{})
	vm.Start()
	defer vm.Stop()

	vm.HandleSignInResult(identity.SignInResult{Response: &identity.SignInResponse{}})
	assert.Equal(t, genericSignInError, vm.State().Get().Message)
}

func TestAuthViewModel_ClearErrorIsNoOpOutsideErrorPhase(t *testing.T) {
	t.Parallel()

	provider := &authProviderStub{current: &identity.Principal{ID: "u1", DisplayName: "Ada"}}
	vm := NewAuthViewModel(provider)
	vm.Start()
	defer vm.Stop()

	vm.ClearError()
	assert.Equal(t, models.AuthAuthenticated, vm.State().Get().Phase)
}

func TestAuthViewModel_SignOutTransitionsViaListener(t *testing.T) {
	t.Parallel()

	provider := &authProviderStub{current: &identity.Principal{ID: "u1", DisplayName: "Ada"}}
	vm := NewAuthViewModel(provider)
	vm.Start()
	defer vm.Stop()

	require.NoError(t, vm.SignOut(context.Background()))
	assert.Equal(t, models.AuthUnauthenticated, vm.State().Get().Phase)
}

func TestAuthViewModel_DeleteAccountCallbacks(t *testing.T) {
	t.Parallel()

	t.Run("success invokes onSuccess", func(t *testing.T) {
		t.Parallel()
		vm := NewAuthViewModel(&authProviderStub{})
		var succeeded bool
		vm.DeleteAccount(context.Background(), func() { succeeded = true }, func(string) {
			t.Fatal("onError must not fire")
		})
		assert.True(t, succeeded)
	})

	t.Run("failure invokes onError with message", func(t *testing.T) {
		t.Parallel()
		vm := NewAuthViewModel(&authProviderStub{deleteErr: errors.New("backend rejected")})
		var msg string
		vm.DeleteAccount(context.Background(), func() {
			t.Fatal("onSuccess must not fire")
		}, func(m string) { msg = m })
		assert.Equal(t, "backend rejected", msg)
	})
}

func TestAuthViewModel_StopDetachesListener(t *testing.T) {
	t.Parallel()

	provider := &authProviderStub{}
	vm := NewAuthViewModel(provider)
	vm.Start()
	vm.Stop()

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.True(t, provider.removed)
}
