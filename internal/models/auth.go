package models

// AuthPhase enumerates the phases of the authentication state machine.
type AuthPhase int

const (
	// AuthInitial is the phase before the first state is known.
	AuthInitial AuthPhase = iota
	// AuthAuthenticated means a signed-in principal is present.
	AuthAuthenticated
	// AuthUnauthenticated means no principal is signed in.
	AuthUnauthenticated
	// AuthFailed is the transient phase after a failed interactive sign-in.
	AuthFailed
)

// String returns a human-readable name for the phase.
func (p AuthPhase) String() string {
	switch p {
	case AuthInitial:
		return "initial"
	case AuthAuthenticated:
		return "authenticated"
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthFailed:
		return "error"
	default:
		return "unknown"
	}
}

// AuthState is the observable authentication state. User is set only in the
// AuthAuthenticated phase and Message only in AuthFailed.
type AuthState struct {
	Phase   AuthPhase
	User    *User
	Message string
}
