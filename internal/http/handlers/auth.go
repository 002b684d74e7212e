package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/storehub/internal/actorctx"
	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/config"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/geocoder89/storehub/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Register(ctx context.Context, req user.RegisterRequest) (service.Session, error)
	Login(ctx context.Context, req user.LoginRequest) (service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type ProfileUpdater interface {
	Update(ctx context.Context, actor *user.User, id int64, req user.UpdateRequest) (user.User, error)
}

type AuthHandler struct {
	auth    Authenticator
	profile ProfileUpdater
}

func NewAuthHandler(auth Authenticator, profile ProfileUpdater) *AuthHandler {
	return &AuthHandler{auth: auth, profile: profile}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// hashing is the slow part, give it room
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	sess, err := h.auth.Register(cctx, req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":      "Usuario registrado exitosamente",
		"user":         sess.User.View(),
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	sess, err := h.auth.Login(cctx, req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":      "Login exitoso",
		"user":         sess.User.View(),
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req user.RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	token, err := h.auth.Refresh(cctx, req.RefreshToken)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// Profile returns the caller as resolved by the auth middleware.
func (h *AuthHandler) Profile(ctx *gin.Context) {
	actor := actorctx.UserFrom(ctx.Request.Context())
	if actor == nil {
		RespondError(ctx, apperr.Auth(apperr.MsgTokenRequired))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": actor.View()})
}

func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	actor := actorctx.UserFrom(ctx.Request.Context())
	if actor == nil {
		RespondError(ctx, apperr.Auth(apperr.MsgTokenRequired))
		return
	}

	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	// role and status never change through the profile, admins included
	req.Role = nil
	req.IsActive = nil

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.profile.Update(cctx, actor, actor.ID, req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Perfil actualizado exitosamente",
		"user":    u.View(),
	})
}
