package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	for _, plain := range []string{"abcdef", "p@ssw0rd with spaces", "contraseña-ñ"} {
		digest, err := h.Hash(plain)
		require.NoError(t, err)

		assert.NotEqual(t, plain, digest)
		assert.True(t, h.Verify(plain, digest), "expected %q to verify", plain)
		assert.False(t, h.Verify(plain+"x", digest))
	}
}

func TestHasher_SaltIsRandomPerCall(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("abcdef")
	require.NoError(t, err)
	b, err := h.Hash("abcdef")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHasher_MalformedDigestIsMismatch(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("abcdef", ""))
	assert.False(t, h.Verify("abcdef", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("abcdef", "$2a$10$short"))
}

func TestHasher_EmptyPassword(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestNewHasher_CostBounds(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).Cost())
	assert.Equal(t, DefaultCost, NewHasher(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 12, NewHasher(12).Cost())
}

func TestHasher_PasswordLimitCountsBytes(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes))
	require.NoError(t, err)

	// 40 two-byte runes
	_, err = h.Hash(strings.Repeat("ñ", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}
