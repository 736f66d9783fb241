package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("strongpassword123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "strongpassword123", hash)

	assert.True(t, VerifyPassword("strongpassword123", hash))
	assert.False(t, VerifyPassword("wrongpassword", hash))
}

func TestHashPasswordSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordEmptyHashNeverMatches(t *testing.T) {
	// OAuth-only accounts store an empty credential.
	assert.False(t, VerifyPassword("", ""))
	assert.False(t, VerifyPassword("anything", ""))
}
