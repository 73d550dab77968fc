package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	require.NotEqual(t, "admin123", hash)

	assert.True(t, VerifyPassword("admin123", hash))
	assert.False(t, VerifyPassword("admin124", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestVerifyPasswordBadHash(t *testing.T) {
	assert.False(t, VerifyPassword("admin123", "not-a-bcrypt-hash"))
}
