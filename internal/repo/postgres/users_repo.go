package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, status, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, obs DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	role := in.Role
	if role == "" {
		role = user.RoleUser
	}

	var u user.User
	err := r.obs.ObserveDB("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, first_name, last_name, role, status)
			VALUES ($1, $2, $3, $4, $5, 'active')
			RETURNING `+userColumns,
			in.Email, in.PasswordHash, in.FirstName, in.LastName, role,
		))
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, classify(err)
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	err := r.obs.ObserveDB("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, classify(err)
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.obs.ObserveDB("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, classify(err)
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	query := `SELECT ` + userColumns + `, COUNT(*) OVER() AS total FROM users`

	var args []any
	argsPosition := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" WHERE status = $%d", argsPosition)
		args = append(args, string(*filter.Status))
		argsPosition++
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, filter.Limit, filter.Offset)

	output := make([]user.User, 0, filter.Limit)
	total := 0

	err := r.obs.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			var t int
			err = rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
				&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt, &t)
			if err != nil {
				return err
			}
			total = t
			output = append(output, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, classify(err)
	}

	// the window count is absent when the page is past the end
	if len(output) == 0 && filter.Offset > 0 {
		total, err = r.count(ctx, filter.Status)
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *UsersRepo) count(ctx context.Context, status *user.Status) (int, error) {
	var n int
	err := r.obs.ObserveDB("users.count", func() error {
		if status == nil {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
		}
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE status = $1`, string(*status)).Scan(&n)
	})
	return n, classify(err)
}

// Update applies the patch in one transaction. When the patch would demote or
// deactivate an active admin, the active admin rows are locked first so two
// concurrent demotions cannot both pass the last-admin check.
func (r *UsersRepo) Update(ctx context.Context, id int64, patch user.Patch) (user.User, error) {
	var out user.User

	err := r.obs.ObserveDB("users.update", func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		current, err := r.lockForChange(ctx, tx, id, patch.RemovesAdmin, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`)
		if err != nil {
			return err
		}

		out, err = applyPatch(ctx, tx, current.ID, patch)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user.User{}, user.ErrNotFound
	case errors.Is(err, user.ErrLastAdmin):
		return user.User{}, user.ErrLastAdmin
	case isUniqueViolation(err):
		return user.User{}, user.ErrEmailTaken
	default:
		return user.User{}, classify(err)
	}
}

// Deactivate soft-deletes an active account.
func (r *UsersRepo) Deactivate(ctx context.Context, id int64) error {
	err := r.obs.ObserveDB("users.deactivate", func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		removesAdmin := func(u user.User) bool { return u.IsAdmin() }

		_, err = r.lockForChange(ctx, tx, id, removesAdmin,
			`SELECT `+userColumns+` FROM users WHERE id = $1 AND status = 'active' FOR UPDATE`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE users SET status = 'deactivated', updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return user.ErrNotFound
	case errors.Is(err, user.ErrLastAdmin):
		return user.ErrLastAdmin
	default:
		return classify(err)
	}
}

// lockForChange locks the target row with lockQuery. When the change takes an
// active admin away, the admin rows are locked in id order before the target
// so concurrent demotions queue instead of deadlocking.
func (r *UsersRepo) lockForChange(ctx context.Context, tx pgx.Tx, id int64, removesAdmin func(user.User) bool, lockQuery string) (user.User, error) {
	peek, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return user.User{}, err
	}

	admins := -1
	if removesAdmin(peek) {
		if admins, err = lockActiveAdmins(ctx, tx); err != nil {
			return user.User{}, err
		}
	}

	current, err := scanUser(tx.QueryRow(ctx, lockQuery, id))
	if err != nil {
		return user.User{}, err
	}

	if !current.IsAdmin() || !current.IsActive() || !removesAdmin(current) {
		return current, nil
	}

	// the row became an admin between the peek and the lock
	if admins < 0 {
		if admins, err = lockActiveAdmins(ctx, tx); err != nil {
			return user.User{}, err
		}
	}

	if admins <= 1 {
		return user.User{}, user.ErrLastAdmin
	}
	return current, nil
}

func (r *UsersRepo) CountActiveAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.obs.ObserveDB("users.count_admins", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE role = 'admin' AND status = 'active'`,
		).Scan(&n)
	})
	return n, classify(err)
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return classify(r.pool.Ping(ctx))
}

// lockActiveAdmins locks every active admin row in id order and returns how many there are.
func lockActiveAdmins(ctx context.Context, tx pgx.Tx) (int, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM users WHERE role = 'admin' AND status = 'active' ORDER BY id FOR UPDATE`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

func applyPatch(ctx context.Context, tx pgx.Tx, id int64, patch user.Patch) (user.User, error) {
	var sets []string
	args := []any{id}

	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Role != nil {
		add("role", string(*patch.Role))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	sets = append(sets, "updated_at = NOW()")

	return scanUser(tx.QueryRow(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+userColumns,
		args...,
	))
}
