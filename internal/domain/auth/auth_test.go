package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u-1", Role: RoleManager}, time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, RoleManager, claims.Role)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u-1", Role: RoleEmployee}, time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u-1", Role: RoleEmployee}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("swordfish")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "swordfish"))
	assert.Error(t, CheckPassword(hash, "sword"))
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, HasPermission(RoleEmployee, PermLeaveWrite))
	assert.False(t, HasPermission(RoleEmployee, PermLeaveApprove))
	assert.True(t, HasPermission(RoleManager, PermLeaveApprove))
	assert.True(t, HasPermission(RoleHR, PermLeaveAdmin))
	assert.False(t, HasPermission(RoleManager, PermLeaveAdmin))
	assert.False(t, HasPermission("unknown", PermLeaveRead))
}

func TestIsAdministrative(t *testing.T) {
	assert.True(t, IsAdministrative(RoleHR))
	assert.True(t, IsAdministrative(RoleAdmin))
	assert.False(t, IsAdministrative(RoleManager))
	assert.False(t, IsAdministrative(RoleEmployee))
}
