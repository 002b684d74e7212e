package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/storehub/internal/domain/user"
)

type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[int64]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, in user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailInUseLocked(in.Email, 0) {
		return user.User{}, user.ErrEmailTaken
	}

	role := in.Role
	if role == "" {
		role = user.RoleUser
	}

	now := time.Now().UTC()
	r.nextID++

	u := user.User{
		ID:           r.nextID,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		Status:       user.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(_ context.Context, filter user.ListFilter) ([]user.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		matched = append(matched, u)
	}

	// newest first, id breaks ties the same way the SQL does
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *UsersRepo) Update(_ context.Context, id int64, patch user.Patch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.updateLocked(id, patch)
}

func (r *UsersRepo) updateLocked(id int64, patch user.Patch) (user.User, error) {
	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if patch.Email != nil && r.emailInUseLocked(*patch.Email, id) {
		return user.User{}, user.ErrEmailTaken
	}

	if patch.RemovesAdmin(u) && r.activeAdminsLocked() <= 1 {
		return user.User{}, user.ErrLastAdmin
	}

	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	u.UpdatedAt = time.Now().UTC()

	r.items[id] = u
	return u, nil
}

// Deactivate soft-deletes an active account.
func (r *UsersRepo) Deactivate(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok || !u.IsActive() {
		return user.ErrNotFound
	}

	deactivated := user.StatusDeactivated
	_, err := r.updateLocked(id, user.Patch{Status: &deactivated})
	return err
}

func (r *UsersRepo) CountActiveAdmins(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.activeAdminsLocked(), nil
}

// Ping satisfies the readiness check; memory is always ready.
func (r *UsersRepo) Ping(_ context.Context) error {
	return nil
}

func (r *UsersRepo) emailInUseLocked(email string, exceptID int64) bool {
	for _, u := range r.items {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *UsersRepo) activeAdminsLocked() int {
	n := 0
	for _, u := range r.items {
		if u.IsAdmin() && u.IsActive() {
			n++
		}
	}
	return n
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
