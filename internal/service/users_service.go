package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/domain/user"
)

type UsersService struct {
	users  UserStore
	hasher PasswordHasher
}

func NewUsersService(users UserStore, hasher PasswordHasher) *UsersService {
	return &UsersService{users: users, hasher: hasher}
}

type UserPage struct {
	Users      []user.User
	Pagination Pagination
}

func (s *UsersService) List(ctx context.Context, actor *user.User, page PageRequest, status *user.Status) (UserPage, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return UserPage{}, err
	}

	page = page.Normalize()

	users, total, err := s.users.List(ctx, user.ListFilter{
		Status: status,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		return UserPage{}, apperr.From(err, apperr.MsgInternal)
	}

	return UserPage{Users: users, Pagination: NewPagination(page, total)}, nil
}

// Get returns any account, active or not, to an admin or to its owner.
func (s *UsersService) Get(ctx context.Context, actor *user.User, id int64) (user.User, error) {
	if err := auth.RequireSelfOrAdmin(actor, id); err != nil {
		return user.User{}, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.User{}, mapUserErr(err)
	}
	return u, nil
}

func (s *UsersService) Create(ctx context.Context, actor *user.User, req user.CreateRequest) (user.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return user.User{}, err
	}

	hash, err := hashPassword(s.hasher, req.Password)
	if err != nil {
		return user.User{}, err
	}

	role := req.Role
	if role == "" {
		role = user.RoleUser
	}

	u, err := s.users.Create(ctx, user.NewUser{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
	})
	if err != nil {
		return user.User{}, mapUserErr(err)
	}

	slog.InfoContext(ctx, "users.created", "user_id", u.ID, "role", u.Role, "by", actor.ID)
	return u, nil
}

// Update changes an account. Role and active state are admin-only fields and
// are silently dropped for everyone else.
func (s *UsersService) Update(ctx context.Context, actor *user.User, id int64, req user.UpdateRequest) (user.User, error) {
	if err := auth.RequireSelfOrAdmin(actor, id); err != nil {
		return user.User{}, err
	}

	if isEmptyUserUpdate(req) {
		return user.User{}, apperr.Validation(apperr.MsgNothingToUpdate, nil)
	}

	patch, err := s.buildPatch(req, actor.IsAdmin())
	if err != nil {
		return user.User{}, err
	}

	if patch.IsEmpty() {
		// only admin fields were sent by a non-admin; the target still has to exist
		return s.Get(ctx, actor, id)
	}

	u, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return user.User{}, mapUserErr(err)
	}

	return u, nil
}

// Delete soft-deletes an account. The last active admin cannot be removed.
func (s *UsersService) Delete(ctx context.Context, actor *user.User, id int64) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}

	if err := s.users.Deactivate(ctx, id); err != nil {
		return mapUserErr(err)
	}

	slog.InfoContext(ctx, "users.deactivated", "user_id", id, "by", actor.ID)
	return nil
}

func (s *UsersService) buildPatch(req user.UpdateRequest, privileged bool) (user.Patch, error) {
	var patch user.Patch

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		patch.Email = &email
	}
	if req.FirstName != nil {
		first := strings.TrimSpace(*req.FirstName)
		patch.FirstName = &first
	}
	if req.LastName != nil {
		last := strings.TrimSpace(*req.LastName)
		patch.LastName = &last
	}
	if req.Password != nil {
		hash, err := hashPassword(s.hasher, *req.Password)
		if err != nil {
			return user.Patch{}, err
		}
		patch.PasswordHash = &hash
	}

	if privileged {
		patch.Role = req.Role
		if req.IsActive != nil {
			status := user.StatusDeactivated
			if *req.IsActive {
				status = user.StatusActive
			}
			patch.Status = &status
		}
	}

	return patch, nil
}

func isEmptyUserUpdate(req user.UpdateRequest) bool {
	return req.Email == nil && req.Password == nil && req.FirstName == nil &&
		req.LastName == nil && req.Role == nil && req.IsActive == nil
}

func mapUserErr(err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return apperr.NotFound(apperr.MsgUserNotFound)
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.Conflict(apperr.MsgEmailTaken)
	case errors.Is(err, user.ErrLastAdmin):
		return apperr.Validation(apperr.MsgLastAdmin, nil)
	default:
		return apperr.From(err, apperr.MsgInternal)
	}
}
