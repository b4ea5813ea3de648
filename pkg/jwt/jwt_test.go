package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse_ConRole(t *testing.T) {
	tok, err := Generate(testSecret, "user-1", RoleBodeguero, "stock-engine-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, role, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, RoleBodeguero, role)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := Generate(testSecret, "user-1", RoleAdmin, "stock-engine-test", -1)
	require.NoError(t, err)

	_, _, err = Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := Generate(testSecret, "user-1", RoleAdmin, "stock-engine-test", 60)
	require.NoError(t, err)

	_, _, err = Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := Generate("", "user-1", RoleAdmin, "x", 60)
	assert.Error(t, err)
	_, _, err = Parse("", "a.b.c")
	assert.Error(t, err)
}
