package identity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestPrepareUserDefaults(t *testing.T) {
	user := &User{Email: "Jane@Example.com"}
	prepareUserDefaults(user)

	assert.Equal(t, RoleStandardUser, user.Role)
	assert.Equal(t, "jane@example.com", user.Email)
	require.NotNil(t, user.CreatedAt)
	require.NotNil(t, user.UpdatedAt)

	// an explicit role survives
	admin := &User{Email: "root@example.com", Role: RoleAdmin}
	prepareUserDefaults(admin)
	assert.Equal(t, RoleAdmin, admin.Role)
}

func TestPublicProjectionOmitsSecrets(t *testing.T) {
	user := &User{
		ID:           7,
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		PasswordHash: "$2a$12$secret",
		ResetToken:   "reset-secret",
		IsActive:     true,
		Role:         RoleStandardUser,
	}

	public := user.Public()
	raw, err := json.Marshal(public)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
	assert.Contains(t, string(raw), "jane@example.com")
}

func TestUserJSONNeverLeaksHash(t *testing.T) {
	user := &User{ID: 7, Email: "jane@example.com", PasswordHash: "$2a$12$secret", ResetToken: "reset-secret"}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
}

func TestPublicNilReceiver(t *testing.T) {
	var user *User
	assert.Nil(t, user.Public())
}
