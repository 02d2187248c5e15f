package identity_test

import (
	"testing"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidatorFunc(t *testing.T) {
	called := ""
	validator := identity.TokenValidatorFunc(func(tokenString string) (identity.AuthClaims, error) {
		called = tokenString
		return &identity.JWTClaims{UID: 7, UserRole: identity.RoleStandardUser}, nil
	})

	claims, err := validator.Validate("raw-token")
	require.NoError(t, err)
	assert.Equal(t, "raw-token", called)
	assert.Equal(t, int64(7), claims.UserID())
}

func TestTokenValidatorFuncNil(t *testing.T) {
	var validator identity.TokenValidatorFunc

	_, err := validator.Validate("raw-token")
	assert.Error(t, err)
}

// A custom validator installed on the Auther takes over session decoding
func TestAutherWithCustomTokenValidator(t *testing.T) {
	auther := newTestAuther(newMemRepo()).WithTokenValidator(
		identity.TokenValidatorFunc(func(string) (identity.AuthClaims, error) {
			return &identity.JWTClaims{UID: 99, UserRole: identity.RoleAdmin}, nil
		}),
	)

	session, err := auther.SessionFromToken("anything")
	require.NoError(t, err)
	assert.Equal(t, int64(99), session.GetUserID())
	assert.Equal(t, identity.RoleAdmin, session.GetRole())
}
