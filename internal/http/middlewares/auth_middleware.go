package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/storehub/internal/actorctx"
	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/config"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/geocoder89/storehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type UserResolver interface {
	Resolve(ctx context.Context, authorizationHeader string) (user.User, error)
}

type AuthMiddleware struct {
	resolver UserResolver
	timeout  time.Duration
}

func NewAuthMiddleware(resolver UserResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, timeout: 2 * time.Second}
}

// RequireAuth resolves the bearer token into an active user and stashes it on
// the request context. Store failures are not reported as 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cctx, cancel := config.WithTimeoutFrom(c.Request.Context(), m.timeout)
		defer cancel()

		u, err := m.resolver.Resolve(cctx, c.GetHeader("Authorization"))
		if err != nil {
			handlers.RespondError(c, authError(err))
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))
		c.Set(CtxUserID, u.ID)

		c.Next()
	}
}

func authError(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return apperr.Auth(apperr.MsgTokenRequired)
	case errors.Is(err, auth.ErrInvalidToken):
		return apperr.Auth(apperr.MsgTokenInvalid)
	case errors.Is(err, auth.ErrInactiveUser):
		return apperr.Auth(apperr.MsgUserInactive)
	default:
		return apperr.From(err, apperr.MsgInternal)
	}
}
