package auth

import (
	"testing"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/domain/product"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	admin := &user.User{ID: 1, Role: user.RoleAdmin, Status: user.StatusActive}
	owner := &user.User{ID: 2, Role: user.RoleUser, Status: user.StatusActive}
	stranger := &user.User{ID: 3, Role: user.RoleUser, Status: user.StatusActive}
	owned := product.Product{ID: 10, UserID: owner.ID}

	cases := []struct {
		name string
		err  error
		want apperr.Kind
		ok   bool
	}{
		{name: "anonymous needs auth", err: RequireAuthenticated(nil), want: apperr.KindAuth},
		{name: "user is authenticated", err: RequireAuthenticated(owner), ok: true},
		{name: "anonymous is not admin", err: RequireAdmin(nil), want: apperr.KindAuth},
		{name: "user is not admin", err: RequireAdmin(owner), want: apperr.KindForbidden},
		{name: "admin is admin", err: RequireAdmin(admin), ok: true},
		{name: "self", err: RequireSelfOrAdmin(owner, owner.ID), ok: true},
		{name: "admin on someone else", err: RequireSelfOrAdmin(admin, owner.ID), ok: true},
		{name: "user on someone else", err: RequireSelfOrAdmin(stranger, owner.ID), want: apperr.KindForbidden},
		{name: "product owner", err: RequireOwnerOrAdmin(owner, owned), ok: true},
		{name: "admin on product", err: RequireOwnerOrAdmin(admin, owned), ok: true},
		{name: "stranger on product", err: RequireOwnerOrAdmin(stranger, owned), want: apperr.KindForbidden},
		{name: "anonymous on product", err: RequireOwnerOrAdmin(nil, owned), want: apperr.KindAuth},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.ok {
				assert.NoError(t, tc.err)
				return
			}
			assert.Equal(t, tc.want, apperr.KindOf(tc.err))
		})
	}
}
