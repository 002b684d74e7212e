package memory

import (
	"context"
	"testing"

	"github.com/geocoder89/storehub/internal/domain/product"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUsersRepo_CreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	u, err := r.Create(ctx, user.NewUser{Email: "a@b.com", PasswordHash: "h", FirstName: "Ana", LastName: "Diaz"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.True(t, u.IsActive())

	_, err = r.Create(ctx, user.NewUser{Email: "a@b.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUsersRepo_LastAdminGuard(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	admin, err := r.Create(ctx, user.NewUser{Email: "admin@test.com", Role: user.RoleAdmin})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Deactivate(ctx, admin.ID), user.ErrLastAdmin)

	_, err = r.Update(ctx, admin.ID, user.Patch{Role: ptr(user.RoleUser)})
	assert.ErrorIs(t, err, user.ErrLastAdmin)

	_, err = r.Update(ctx, admin.ID, user.Patch{Status: ptr(user.StatusDeactivated)})
	assert.ErrorIs(t, err, user.ErrLastAdmin)

	second, err := r.Create(ctx, user.NewUser{Email: "admin2@test.com", Role: user.RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, r.Deactivate(ctx, admin.ID))

	n, err := r.CountActiveAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, r.Deactivate(ctx, second.ID), user.ErrLastAdmin)
	assert.ErrorIs(t, r.Deactivate(ctx, admin.ID), user.ErrNotFound, "already deactivated")
}

func TestUsersRepo_UpdateEmailConflict(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	a, err := r.Create(ctx, user.NewUser{Email: "a@b.com"})
	require.NoError(t, err)
	_, err = r.Create(ctx, user.NewUser{Email: "c@d.com"})
	require.NoError(t, err)

	_, err = r.Update(ctx, a.ID, user.Patch{Email: ptr("c@d.com")})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	got, err := r.Update(ctx, a.ID, user.Patch{Email: ptr("a@b.com"), FirstName: ptr("Ana")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FirstName)
}

func TestUsersRepo_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	for _, email := range []string{"1@x.com", "2@x.com", "3@x.com"} {
		_, err := r.Create(ctx, user.NewUser{Email: email})
		require.NoError(t, err)
	}
	require.NoError(t, r.Deactivate(ctx, 1))

	all, total, err := r.List(ctx, user.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 2)
	assert.Equal(t, int64(3), all[0].ID, "newest first")

	active := user.StatusActive
	_, total, err = r.List(ctx, user.ListFilter{Status: &active, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	rest, _, err := r.List(ctx, user.ListFilter{Limit: 10, Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, rest)

	// a negative offset reads from the start instead of panicking
	head, _, err := r.List(ctx, user.ListFilter{Limit: 2, Offset: -20})
	require.NoError(t, err)
	assert.Len(t, head, 2)
}

func TestProductsRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	users := NewUsersRepo()
	owner, err := users.Create(ctx, user.NewUser{Email: "o@b.com", FirstName: "Olga", LastName: "Ruiz"})
	require.NoError(t, err)

	r := NewProductsRepo(users)

	p, err := r.Create(ctx, product.NewProduct{Name: "Laptop", Description: "A decent laptop", Price: 999.5, Stock: 3, Category: "Electronics", UserID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, "Olga", p.Owner.FirstName)
	assert.True(t, p.IsAvailable())

	updated, err := r.Update(ctx, p.ID, product.UpdateRequest{Stock: ptr(0)})
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable())
	assert.Equal(t, "Laptop", updated.Name)

	require.NoError(t, r.Deactivate(ctx, p.ID))

	_, err = r.GetByID(ctx, p.ID, product.StatusActive)
	assert.ErrorIs(t, err, product.ErrNotFound)

	_, err = r.Update(ctx, p.ID, product.UpdateRequest{Stock: ptr(1)})
	assert.ErrorIs(t, err, product.ErrNotFound)
	assert.ErrorIs(t, r.Deactivate(ctx, p.ID), product.ErrNotFound)

	hidden, err := r.GetByID(ctx, p.ID, product.StatusDeactivated)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive())
}

func TestProductsRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	r := NewProductsRepo(nil)

	seed := []product.NewProduct{
		{Name: "Gaming Laptop", Category: "Electronics", UserID: 1},
		{Name: "Office Chair", Category: "Furniture", UserID: 1},
		{Name: "laptop stand", Category: "Furniture", UserID: 2},
	}
	for _, in := range seed {
		_, err := r.Create(ctx, in)
		require.NoError(t, err)
	}
	require.NoError(t, r.Deactivate(ctx, 2))

	got, total, err := r.List(ctx, product.ListFilter{Search: ptr("LAPTOP"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)

	got, total, err = r.List(ctx, product.ListFilter{Category: ptr("Furniture"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "deactivated products are hidden")
	assert.Equal(t, "laptop stand", got[0].Name)
}
