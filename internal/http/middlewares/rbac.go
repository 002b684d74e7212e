package middlewares

import (
	"github.com/geocoder89/storehub/internal/actorctx"
	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAdmin(actorctx.UserFrom(c.Request.Context())); err != nil {
			handlers.RespondError(c, err)
			return
		}
		c.Next()
	}
}
