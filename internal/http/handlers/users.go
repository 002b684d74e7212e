package handlers

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"github.com/geocoder89/storehub/internal/actorctx"
	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/config"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/geocoder89/storehub/internal/service"
	"github.com/gin-gonic/gin"
)

type UserManager interface {
	List(ctx context.Context, actor *user.User, page service.PageRequest, status *user.Status) (service.UserPage, error)
	Get(ctx context.Context, actor *user.User, id int64) (user.User, error)
	Create(ctx context.Context, actor *user.User, req user.CreateRequest) (user.User, error)
	Update(ctx context.Context, actor *user.User, id int64, req user.UpdateRequest) (user.User, error)
	Delete(ctx context.Context, actor *user.User, id int64) error
}

type UsersHandler struct {
	users UserManager
}

func NewUsersHandler(users UserManager) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	var status *user.Status
	if raw := optionalQuery(ctx, "status"); raw != nil {
		s := user.Status(*raw)
		if s != user.StatusActive && s != user.StatusDeactivated {
			RespondError(ctx, apperr.Validation(apperr.MsgValidation, []FieldError{
				{Field: "status", Rule: "oneof", Param: "active deactivated", Message: validationMessage("oneof", "active deactivated", reflect.String)},
			}))
			return
		}
		status = &s
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	page, err := h.users.List(cctx, actorctx.UserFrom(ctx.Request.Context()), parsePage(ctx), status)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users":      user.Views(page.Users),
		"pagination": page.Pagination,
	})
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, actorctx.UserFrom(ctx.Request.Context()), req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Usuario creado exitosamente",
		"user":    u.View(),
	})
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.Get(cctx, actorctx.UserFrom(ctx.Request.Context()), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u.View()})
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	actor := actorctx.UserFrom(ctx.Request.Context())

	// access is decided before the body is looked at
	if err := auth.RequireSelfOrAdmin(actor, id); err != nil {
		RespondError(ctx, err)
		return
	}

	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, actor, id, req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Usuario actualizado exitosamente",
		"user":    u.View(),
	})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, actorctx.UserFrom(ctx.Request.Context()), id); err != nil {
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado exitosamente"})
}
