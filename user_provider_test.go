package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVerifyIdentity(t *testing.T) {
	store := newMemUsers()
	seedUser(store, "jane@example.com", "Password1!")

	provider := identity.NewUserProvider(store)

	found, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "Password1!")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", found.Email())
	assert.Equal(t, identity.RoleStandardUser, found.Role())
	assert.True(t, found.Active())
}

func TestVerifyIdentityWrongPassword(t *testing.T) {
	store := newMemUsers()
	seedUser(store, "jane@example.com", "Password1!")

	provider := identity.NewUserProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "WrongPass1!")
	assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
}

func TestVerifyIdentityUnknownEmail(t *testing.T) {
	store := newMemUsers()
	seedUser(store, "jane@example.com", "Password1!")

	provider := identity.NewUserProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "nobody@example.com", "Password1!")
	assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
}

// Unknown email and wrong password must be indistinguishable to a caller
func TestVerifyIdentityErrorsDoNotLeakAccountExistence(t *testing.T) {
	store := newMemUsers()
	seedUser(store, "jane@example.com", "Password1!")

	provider := identity.NewUserProvider(store)

	_, errUnknown := provider.VerifyIdentity(context.Background(), "nobody@example.com", "Password1!")
	_, errWrongPass := provider.VerifyIdentity(context.Background(), "jane@example.com", "WrongPass1!")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPass)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())

	var richUnknown, richWrong *errors.Error
	require.ErrorAs(t, errUnknown, &richUnknown)
	require.ErrorAs(t, errWrongPass, &richWrong)
	assert.Equal(t, richUnknown.TextCode, richWrong.TextCode)
}

func TestVerifyIdentityInactiveAccount(t *testing.T) {
	store := newMemUsers()
	user := seedUser(store, "gone@example.com", "Password1!")
	user.IsActive = false

	provider := identity.NewUserProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "gone@example.com", "Password1!")
	assert.ErrorIs(t, err, identity.ErrAccountInactive)
}

func TestVerifyIdentityStoreFailure(t *testing.T) {
	store := new(MockUserStore)
	store.On("GetByEmail", mock.Anything, "jane@example.com").
		Return(nil, errors.New("connection refused", errors.CategoryInternal))

	provider := identity.NewUserProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "jane@example.com", "Password1!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
}

func TestVerifyIdentityInvalidRole(t *testing.T) {
	store := newMemUsers()
	user := seedUser(store, "odd@example.com", "Password1!")
	user.Role = "superuser"

	provider := identity.NewUserProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "odd@example.com", "Password1!")
	assert.Error(t, err)
}

func TestFindIdentityByID(t *testing.T) {
	store := newMemUsers()
	user := seedUser(store, "jane@example.com", "Password1!")

	provider := identity.NewUserProvider(store)

	found, err := provider.FindIdentityByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID())

	_, err = provider.FindIdentityByID(context.Background(), 9999)
	assert.ErrorIs(t, err, identity.ErrIdentityNotFound)
}

func TestFindIdentityByEmail(t *testing.T) {
	store := newMemUsers()
	seedUser(store, "jane@example.com", "Password1!")

	provider := identity.NewUserProvider(store)

	found, err := provider.FindIdentityByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", found.Email())
}

// Both login failure paths must cost one bcrypt comparison so response
// timing cannot reveal whether an email is registered.
func TestVerifyIdentityFailurePathsCostTheSame(t *testing.T) {
	store := newMemUsers()
	seedUser(store, "jane@example.com", "Password1!")

	provider := identity.NewUserProvider(store)
	ctx := context.Background()

	// warm up so one-time setup does not skew the first sample
	_, _ = provider.VerifyIdentity(ctx, "nobody@example.com", "Password1!")
	_, _ = provider.VerifyIdentity(ctx, "jane@example.com", "WrongPass1!")

	const rounds = 3
	var unknown, wrongPass time.Duration
	for i := 0; i < rounds; i++ {
		start := time.Now()
		_, err := provider.VerifyIdentity(ctx, "nobody@example.com", "Password1!")
		unknown += time.Since(start)
		require.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)

		start = time.Now()
		_, err = provider.VerifyIdentity(ctx, "jane@example.com", "WrongPass1!")
		wrongPass += time.Since(start)
		require.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
	}

	ratio := float64(unknown) / float64(wrongPass)
	assert.Less(t, ratio, 1.5, "unknown-email path does more hash work than wrong-password")
	assert.Greater(t, ratio, 0.5, "wrong-password path does more hash work than unknown-email")
}
