package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserFinder struct {
	users map[int64]user.User
	err   error
	calls int
}

func (f *fakeUserFinder) GetByID(_ context.Context, id int64) (user.User, error) {
	f.calls++
	if f.err != nil {
		return user.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func resolverFixture(t *testing.T) (*Resolver, *Manager, *fakeClock, *fakeUserFinder) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	finder := &fakeUserFinder{users: map[int64]user.User{
		1: {ID: 1, Email: "active@b.com", Role: user.RoleUser, Status: user.StatusActive},
		2: {ID: 2, Email: "gone@b.com", Role: user.RoleUser, Status: user.StatusDeactivated},
	}}

	return NewResolver(m, finder), m, clock, finder
}

func TestResolver_ResolvesActiveUser(t *testing.T) {
	r, m, _, finder := resolverFixture(t)

	raw, err := m.IssueAccess(Identity{UserID: 1, Email: "active@b.com", Role: "user"})
	require.NoError(t, err)

	u, err := r.Resolve(context.Background(), "Bearer "+raw)
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, 1, finder.calls, "exactly one store lookup per valid token")
}

func TestResolver_Rejections(t *testing.T) {
	r, m, clock, finder := resolverFixture(t)

	valid := func(id int64) string {
		raw, err := m.IssueAccess(Identity{UserID: id, Email: "x@b.com", Role: "user"})
		require.NoError(t, err)
		return raw
	}

	expired := valid(1)
	unknown := valid(99)
	inactive := valid(2)
	refresh, err := m.IssueRefresh(Identity{UserID: 1, Email: "active@b.com", Role: "user"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		header  func() string
		wantErr error
		lookups int
	}{
		{name: "absent header", header: func() string { return "" }, wantErr: ErrMissingToken},
		{name: "no bearer prefix", header: func() string { return valid(1) }, wantErr: ErrMissingToken},
		{name: "lowercase prefix", header: func() string { return "bearer " + valid(1) }, wantErr: ErrMissingToken},
		{name: "empty bearer", header: func() string { return "Bearer   " }, wantErr: ErrMissingToken},
		{name: "garbage token", header: func() string { return "Bearer not.a.jwt" }, wantErr: ErrInvalidToken},
		{name: "refresh token used as access", header: func() string { return "Bearer " + refresh }, wantErr: ErrInvalidToken},
		{name: "unknown user", header: func() string { return "Bearer " + unknown }, wantErr: ErrInactiveUser, lookups: 1},
		{name: "inactive user", header: func() string { return "Bearer " + inactive }, wantErr: ErrInactiveUser, lookups: 1},
		{
			name: "expired token",
			header: func() string {
				clock.Advance(2 * time.Hour)
				return "Bearer " + expired
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			finder.calls = 0

			_, err := r.Resolve(context.Background(), tc.header())

			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, IsUnauthenticated(err))
			assert.Equal(t, tc.lookups, finder.calls)
		})
	}
}

func TestResolver_StoreFailureIsNotUnauthenticated(t *testing.T) {
	r, m, _, finder := resolverFixture(t)
	finder.err = errors.New("connection refused")

	raw, err := m.IssueAccess(Identity{UserID: 1, Email: "active@b.com", Role: "user"})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "Bearer "+raw)

	require.Error(t, err)
	assert.False(t, IsUnauthenticated(err))
}

func TestBearerToken(t *testing.T) {
	raw, ok := BearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", raw)

	_, ok = BearerToken("Basic dXNlcjpwYXNz")
	assert.False(t, ok)
}
