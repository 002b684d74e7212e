package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/storehub/internal/config"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/geocoder89/storehub/internal/security"
)

// AdminStore is the slice of the users store the seed needs; both stores satisfy it.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
}

// EnsureAdminUser creates the configured admin account once. An existing
// account with that email is left untouched.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher *security.Hasher, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	// check if the user exists
	_, err := store.GetByEmail(ctx, email)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u, err := store.Create(ctx, user.NewUser{
		Email:        email,
		PasswordHash: hash,
		FirstName:    cfg.AdminFirstName,
		LastName:     cfg.AdminLastName,
		Role:         user.RoleAdmin,
	})

	// lost a race with another instance seeding the same account
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("admin.seeded", "user_id", u.ID, "email", u.Email)
	return nil
}
