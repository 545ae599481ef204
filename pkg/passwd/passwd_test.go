package passwd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	digest, err := h.Hash("Abc12345!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(digest, "$2a$"))

	require.NoError(t, h.Verify("Abc12345!", digest))
	require.ErrorIs(t, h.Verify("wrong", digest), ErrMismatch)
}

func TestBcryptUniqueSalts(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	first, err := h.Hash("samepassword")
	require.NoError(t, err)
	second, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, first, second, "hashes should differ due to unique salts")
}

func TestBcryptCostFallback(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewBcrypt(99).cost)
	require.Equal(t, 12, NewBcrypt(12).cost)
}

func TestVerifyMalformedDigest(t *testing.T) {
	err := NewBcrypt(bcrypt.MinCost).Verify("x", "not-a-hash")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMismatch)
}

func TestVerifyOverlongSecretIsMismatch(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	digest, err := h.Hash("Abc12345!")
	require.NoError(t, err)

	require.ErrorIs(t, h.Verify("Abc12345!"+strings.Repeat("x", 80), digest), ErrMismatch)
}
