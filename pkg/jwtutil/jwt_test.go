package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})

	token, err := util.GenerateToken("driver-ops@acme.test", 12, 3, "MANAGER")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "driver-ops@acme.test", claims.Email)
	assert.Equal(t, uint(12), claims.UserID)
	assert.Equal(t, uint(3), claims.TenantID)
	assert.Equal(t, "MANAGER", claims.Role)
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuer := NewJWTUtil(&JWTConfig{SigningKey: "secret-a", ExpirationHours: 1})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "secret-b", ExpirationHours: 1})

	token, err := issuer.GenerateToken("ops@acme.test", 1, 1, "VIEWER")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	util := NewJWTUtil(nil)

	_, err := util.GenerateToken("ops@acme.test", 1, 1, "VIEWER")
	assert.Error(t, err)

	_, err = util.ValidateToken("whatever")
	assert.Error(t, err)
}
