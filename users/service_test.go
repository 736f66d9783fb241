package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storefront-go/auth"
)

func strPtr(s string) *string { return &s }

func TestHasUpdates(t *testing.T) {
	assert.False(t, (&UpdateUserRequest{}).hasUpdates())
	assert.True(t, (&UpdateUserRequest{City: strPtr("Lisbon")}).hasUpdates())
	assert.True(t, (&UpdateUserRequest{Password: strPtr("newpassword123")}).hasUpdates())
}

func TestBuildUserUpdateOrderingAndPlaceholders(t *testing.T) {
	req := &UpdateUserRequest{
		Email:    strPtr("Mixed@Case.COM"),
		Username: strPtr("newname"),
		City:     strPtr("Porto"),
	}

	clauses, args, err := buildUserUpdate(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"email = $1", "username = $2", "city = $3"}, clauses)
	require.Len(t, args, 3)
	assert.Equal(t, "mixed@case.com", args[0])
	assert.Equal(t, "newname", args[1])
	assert.Equal(t, "Porto", args[2])
}

func TestBuildUserUpdateHashesPassword(t *testing.T) {
	req := &UpdateUserRequest{Password: strPtr("strongpassword123")}

	clauses, args, err := buildUserUpdate(req)
	require.NoError(t, err)

	require.Equal(t, []string{"hashed_password = $1"}, clauses)
	hashed, ok := args[0].(string)
	require.True(t, ok)
	assert.NotEqual(t, "strongpassword123", hashed)
	assert.True(t, auth.VerifyPassword("strongpassword123", hashed))
}

func TestBuildUserUpdateEmpty(t *testing.T) {
	clauses, args, err := buildUserUpdate(&UpdateUserRequest{})
	require.NoError(t, err)
	assert.Empty(t, clauses)
	assert.Empty(t, args)
}
