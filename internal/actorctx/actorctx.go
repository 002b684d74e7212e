// Package actorctx carries the authenticated user on a request context.
package actorctx

import (
	"context"

	"github.com/geocoder89/storehub/internal/domain/user"
)

type ctxKey struct{}

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the resolved user, or nil on an anonymous request.
func UserFrom(ctx context.Context) *user.User {
	u, ok := ctx.Value(ctxKey{}).(user.User)
	if !ok {
		return nil
	}
	return &u
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	u := UserFrom(ctx)
	if u == nil {
		return 0, false
	}
	return u.ID, true
}
