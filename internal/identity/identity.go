// Package identity implements the identity provider client: email/password
// sign-in with a required display name, durable local sessions, auth state
// listeners, sign-out, and account deletion.
//
// The rest of the application never calls into this package to decide auth
// state; it reads the current principal once at start and reacts to listener
// callbacks afterwards.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ember/internal/docstore"
	"ember/internal/models"
	"ember/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	colAccounts = "accounts"

	sessionTTL = 30 * 24 * time.Hour
)

// Principal is the authenticated identity returned by the provider.
type Principal struct {
	ID          string
	Email       string
	DisplayName string
}

// SignInResponse is the payload of a completed interactive sign-in attempt.
type SignInResponse struct {
	ErrorMessage string
}

// SignInResult is the outcome of the interactive sign-in flow. OK means the
// flow succeeded; a nil Response with OK unset means the user cancelled.
type SignInResult struct {
	OK       bool
	Response *SignInResponse
}

// Cancelled is the result of a sign-in flow the user backed out of.
func Cancelled() SignInResult { return SignInResult{} }

// Session is the locally persisted sign-in token. At most one row exists.
type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the gorm default.
func (Session) TableName() string { return "auth_sessions" }

type sessionClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Service is the identity provider client. One Service is shared
// process-wide.
type Service struct {
	store  *docstore.Store
	db     *gorm.DB
	secret []byte
	log    *observability.Logger

	mu        sync.Mutex
	current   *Principal
	listeners map[int]func(*Principal)
	nextID    int
}

// NewService opens the provider, migrating the local session table and
// synchronously restoring the current principal so callers observe
// Authenticated or Unauthenticated immediately.
func NewService(store *docstore.Store, db *gorm.DB, secret string) (*Service, error) {
	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, err
	}
	s := &Service{
		store:     store,
		db:        db,
		secret:    []byte(secret),
		log:       observability.Component("identity"),
		listeners: make(map[int]func(*Principal)),
	}
	s.current = s.restore()
	return s, nil
}

// restore reads the persisted session and validates its token. An expired or
// unparseable token is discarded.
func (s *Service) restore() *Principal {
	var sess Session
	if err := s.db.First(&sess).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("session read failed", "error", err)
		}
		return nil
	}

	p, err := s.parseToken(sess.Token)
	if err != nil {
		s.log.Info("discarding stale session", "error", err)
		s.db.Delete(&sess)
		return nil
	}
	return p
}

func (s *Service) parseToken(token string) (*Principal, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session token")
	}
	return &Principal{ID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, nil
}

func (s *Service) issueToken(p *Principal) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
		Name:  p.DisplayName,
		Email: p.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Current returns the signed-in principal, or nil.
func (s *Service) Current() *Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// Listen registers a callback fired on every subsequent auth state change
// (nil principal means signed out). The returned function removes the
// listener; it must run on every exit path of the owning scope.
func (s *Service) Listen(fn func(*Principal)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) setCurrent(p *Principal) {
	s.mu.Lock()
	s.current = p
	fns := make([]func(*Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		var snapshot *Principal
		if p != nil {
			c := *p
			snapshot = &c
		}
		fn(snapshot)
	}
}

// SignIn authenticates an existing account or, when the email is unknown,
// registers a new one. On success the session is persisted durably and
// listeners fire with the new principal.
func (s *Service) SignIn(ctx context.Context, email, password, displayName string) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.NewAuthError("email and password are required")
	}

	doc, err := s.store.Get(ctx, colAccounts, email)
	switch {
	case models.HasCode(err, models.CodeNotFound):
		if strings.TrimSpace(displayName) == "" {
			return nil, models.NewAuthError("display name is required for new accounts")
		}
		return s.register(ctx, email, password, displayName)
	case err != nil:
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(doc.String("password_hash")), []byte(password)) != nil {
		return nil, models.NewAuthError("invalid email or password")
	}

	p := &Principal{ID: doc.String("id"), Email: email, DisplayName: doc.String("display_name")}
	if err := s.persistSession(ctx, p); err != nil {
		return nil, err
	}
	s.setCurrent(p)
	return p, nil
}

func (s *Service) register(ctx context.Context, email, password, displayName string) (*Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	p := &Principal{ID: uuid.NewString(), Email: email, DisplayName: strings.TrimSpace(displayName)}
	fields := map[string]any{
		"id":            p.ID,
		"display_name":  p.DisplayName,
		"password_hash": string(hash),
		"created_at":    time.Now().UnixMilli(),
	}
	if err := s.store.Set(ctx, colAccounts, email, fields); err != nil {
		return nil, err
	}
	s.log.Info("account created", "subject", p.ID)

	if err := s.persistSession(ctx, p); err != nil {
		return nil, err
	}
	s.setCurrent(p)
	return p, nil
}

func (s *Service) persistSession(ctx context.Context, p *Principal) error {
	token, err := s.issueToken(p)
	if err != nil {
		return models.NewInternalError(err)
	}
	db := s.db.WithContext(ctx)
	if err := db.Where("1 = 1").Delete(&Session{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Create(&Session{Token: token}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// SignOut discards the session. The state transition reaches observers via
// their listeners, not by any direct assignment on their side.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&Session{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	s.setCurrent(nil)
	return nil
}

// DeleteAccount removes the signed-in account from the backend and discards
// the session.
func (s *Service) DeleteAccount(ctx context.Context) error {
	p := s.Current()
	if p == nil {
		return models.NewUnauthenticatedError("no signed-in account to delete")
	}
	if err := s.store.Delete(ctx, colAccounts, p.Email); err != nil {
		return err
	}
	return s.SignOut(ctx)
}
