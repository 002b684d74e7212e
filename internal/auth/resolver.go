package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/storehub/internal/domain/user"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInactiveUser = errors.New("user not found or inactive")
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccess(token string) (*Claims, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// Resolver turns an Authorization header into an active user.
type Resolver struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewResolver(tokens TokenVerifier, users UserFinder) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// BearerToken extracts the token from an Authorization header value.
// Anything not starting with "Bearer " counts as absent.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	raw := strings.TrimSpace(header[len(bearerPrefix):])
	return raw, raw != ""
}

// Resolve returns ErrMissingToken, ErrInvalidToken or ErrInactiveUser when the
// request is unauthenticated. Any other error comes from the user store.
func (r *Resolver) Resolve(ctx context.Context, header string) (user.User, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return user.User{}, ErrMissingToken
	}

	claims, err := r.tokens.VerifyAccess(raw)
	if err != nil {
		return user.User{}, errors.Join(ErrInvalidToken, err)
	}

	u, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInactiveUser
		}
		return user.User{}, err
	}

	if !u.IsActive() {
		return user.User{}, ErrInactiveUser
	}

	return u, nil
}

// IsUnauthenticated reports whether err means "no usable identity" rather than a store failure.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrInactiveUser)
}
