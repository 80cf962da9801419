package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("secret_1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret_1", hash)

	assert.True(t, h.Compare(hash, "secret_1"))
	assert.False(t, h.Compare(hash, "secret_2"))
	assert.False(t, h.Compare("not-a-hash", "secret_1"))
}

func TestPlainHasher(t *testing.T) {
	h := PlainHasher{}

	stored, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.Equal(t, "pw1", stored)
	assert.True(t, h.Compare(stored, "pw1"))
	assert.False(t, h.Compare(stored, "PW1"))
	assert.False(t, h.Compare(stored, ""))
}

func TestNewPasswordHasher(t *testing.T) {
	assert.IsType(t, PlainHasher{}, NewPasswordHasher("plain"))
	assert.IsType(t, BcryptHasher{}, NewPasswordHasher("bcrypt"))
	assert.IsType(t, BcryptHasher{}, NewPasswordHasher(""))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.True(t, CheckPassword("admin123", hash))
	assert.False(t, CheckPassword("admin124", hash))
}
