package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/geocoder89/storehub/internal/security"
)

// UserStore is the credential store as the services see it.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
	Update(ctx context.Context, id int64, patch user.Patch) (user.User, error)
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type TokenIssuer interface {
	IssueAccess(id auth.Identity) (string, error)
	IssueRefresh(id auth.Identity) (string, error)
	VerifyRefresh(token string) (*auth.Claims, error)
}

// AuthMetrics counts credential outcomes; observability.Prom implements it.
type AuthMetrics interface {
	ObserveAuth(action, result string)
}

type noopAuthMetrics struct{}

func (noopAuthMetrics) ObserveAuth(string, string) {}

type AuthService struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics AuthMetrics
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, metrics AuthMetrics) *AuthService {
	if metrics == nil {
		metrics = noopAuthMetrics{}
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, metrics: metrics}
}

// Session is what register and login hand back to the client.
type Session struct {
	User         user.User
	Token        string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (Session, error) {
	email := normalizeEmail(req.Email)

	// pre-check keeps the common case off the unique constraint
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.ObserveAuth("register", "conflict")
		return Session{}, apperr.Conflict(apperr.MsgEmailTaken)
	case !errors.Is(err, user.ErrNotFound):
		return Session{}, apperr.From(err, apperr.MsgInternal)
	}

	hash, err := hashPassword(s.hasher, req.Password)
	if err != nil {
		return Session{}, err
	}

	u, err := s.users.Create(ctx, user.NewUser{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         user.RoleUser,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			s.metrics.ObserveAuth("register", "conflict")
			return Session{}, apperr.Conflict(apperr.MsgEmailTaken)
		}
		return Session{}, apperr.From(err, apperr.MsgInternal)
	}

	sess, err := s.issue(u)
	if err != nil {
		return Session{}, err
	}

	s.metrics.ObserveAuth("register", "ok")
	slog.InfoContext(ctx, "auth.registered", "user_id", u.ID)
	return sess, nil
}

// Login checks the account state before the password so a deactivated
// account gets its own message.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.metrics.ObserveAuth("login", "invalid_credentials")
			return Session{}, apperr.Auth(apperr.MsgInvalidCredentials)
		}
		return Session{}, apperr.From(err, apperr.MsgInternal)
	}

	if !u.IsActive() {
		s.metrics.ObserveAuth("login", "inactive")
		return Session{}, apperr.Auth(apperr.MsgAccountDisabled)
	}

	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		s.metrics.ObserveAuth("login", "invalid_credentials")
		return Session{}, apperr.Auth(apperr.MsgInvalidCredentials)
	}

	sess, err := s.issue(u)
	if err != nil {
		return Session{}, err
	}

	s.metrics.ObserveAuth("login", "ok")
	return sess, nil
}

// Refresh trades a valid refresh token for a new access token. The account is
// re-read so a deactivation takes effect at the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.metrics.ObserveAuth("refresh", "invalid_token")
		return "", apperr.Auth(apperr.MsgTokenInvalid)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.metrics.ObserveAuth("refresh", "inactive")
			return "", apperr.Auth(apperr.MsgUserInactive)
		}
		return "", apperr.From(err, apperr.MsgInternal)
	}
	if !u.IsActive() {
		s.metrics.ObserveAuth("refresh", "inactive")
		return "", apperr.Auth(apperr.MsgUserInactive)
	}

	token, err := s.tokens.IssueAccess(identityOf(u))
	if err != nil {
		return "", apperr.Internal(apperr.MsgInternal, err)
	}

	s.metrics.ObserveAuth("refresh", "ok")
	return token, nil
}

func (s *AuthService) issue(u user.User) (Session, error) {
	id := identityOf(u)

	token, err := s.tokens.IssueAccess(id)
	if err != nil {
		return Session{}, apperr.Internal(apperr.MsgInternal, err)
	}

	refresh, err := s.tokens.IssueRefresh(id)
	if err != nil {
		return Session{}, apperr.Internal(apperr.MsgInternal, err)
	}

	return Session{User: u, Token: token, RefreshToken: refresh}, nil
}

func identityOf(u user.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashPassword turns an over-long password into a validation error; anything
// else from the hasher is internal.
func hashPassword(h PasswordHasher, plain string) (string, error) {
	hash, err := h.Hash(plain)
	switch {
	case err == nil:
		return hash, nil
	case errors.Is(err, security.ErrPasswordTooLong):
		return "", apperr.Validation(apperr.MsgPasswordTooLong, nil)
	default:
		return "", apperr.Internal(apperr.MsgInternal, err)
	}
}
