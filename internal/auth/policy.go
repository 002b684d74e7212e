package auth

import (
	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/domain/product"
	"github.com/geocoder89/storehub/internal/domain/user"
)

// Access policy. Each check is pure and must run before any mutation.

func RequireAuthenticated(actor *user.User) error {
	if actor == nil {
		return apperr.Auth(apperr.MsgTokenRequired)
	}
	return nil
}

func RequireAdmin(actor *user.User) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperr.Forbidden(apperr.MsgAdminRequired)
	}
	return nil
}

func RequireSelfOrAdmin(actor *user.User, ownerID int64) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.ID != ownerID && !actor.IsAdmin() {
		return apperr.Forbidden(apperr.MsgAccessDenied)
	}
	return nil
}

func RequireOwnerOrAdmin(actor *user.User, p product.Product) error {
	return RequireSelfOrAdmin(actor, p.UserID)
}
