package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/dkopi/internal/domain/admin"
)

// --- Helpers ---

func fastArgon() argon2.Config {
	cfg := argon2.DefaultConfig()
	cfg.TimeCost = 1
	cfg.MemoryCost = 1024
	return cfg
}

func newAuth(now func() time.Time) *admin.Auth {
	return admin.NewAuth([]byte("test-secret"), time.Hour,
		admin.WithArgon2(fastArgon()),
		admin.WithAuthClock(now),
	)
}

// --- Tests ---

func TestAuth_GuestSignIn(t *testing.T) {
	ctx := context.Background()
	a := newAuth(time.Now)

	tests := []struct {
		email   string
		name    string
		role    admin.Role
		isAdmin bool
	}{
		{"admin@dkopi.com", "admin", admin.RoleInventoryManager, true},
		{"store.admin@example.com", "store.admin", admin.RoleInventoryManager, true},
		{"budi@example.com", "budi", admin.RoleCustomer, false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			token, acc, err := a.SignIn(ctx, tt.email, "whatever")
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, tt.name, acc.Name)
			assert.Equal(t, tt.role, acc.Role)
			assert.Equal(t, tt.isAdmin, acc.IsAdmin())

			verified, err := a.Verify(ctx, token)
			require.NoError(t, err)
			assert.Equal(t, acc, verified)
		})
	}
}

func TestAuth_EmptyCredentials(t *testing.T) {
	a := newAuth(time.Now)
	_, _, err := a.SignIn(context.Background(), "", "secret")
	require.ErrorIs(t, err, admin.ErrInvalidCredentials)
	_, _, err = a.SignIn(context.Background(), "a@b.c", "")
	require.ErrorIs(t, err, admin.ErrInvalidCredentials)
}

func TestAuth_SignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	a := newAuth(time.Now)

	acc, err := a.SignUp(ctx, "Ratna@Example.com", "s3cret", "Ratna", "super_admin")
	require.NoError(t, err)
	assert.Equal(t, "ratna@example.com", acc.Email)
	assert.Equal(t, admin.RoleSuperAdmin, acc.Role)

	_, err = a.SignUp(ctx, "ratna@example.com", "other", "Ratna", "customer")
	require.ErrorIs(t, err, admin.ErrAccountExists)

	_, _, err = a.SignIn(ctx, "ratna@example.com", "wrong")
	require.ErrorIs(t, err, admin.ErrInvalidCredentials)

	token, got, err := a.SignIn(ctx, "ratna@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, acc, got)

	verified, err := a.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Ratna", verified.Name)
}

func TestAuth_SignUpValidation(t *testing.T) {
	ctx := context.Background()
	a := newAuth(time.Now)

	var vErr *admin.ValidationError
	_, err := a.SignUp(ctx, "x@example.com", "pw", "X", "wizard")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "role", vErr.Field)

	_, err = a.SignUp(ctx, "x@example.com", "", "X", "customer")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "password", vErr.Field)
}

func TestAuth_SignOutRevokes(t *testing.T) {
	ctx := context.Background()
	a := newAuth(time.Now)

	token, _, err := a.SignIn(ctx, "admin@dkopi.com", "pw")
	require.NoError(t, err)
	require.NoError(t, a.SignOut(ctx, token))

	_, err = a.Verify(ctx, token)
	require.ErrorIs(t, err, admin.ErrInvalidToken)
}

func TestAuth_ExpiredAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	a := newAuth(func() time.Time { return now })

	token, _, err := a.SignIn(ctx, "admin@dkopi.com", "pw")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = a.Verify(ctx, token)
	require.ErrorIs(t, err, admin.ErrInvalidToken)

	other := admin.NewAuth([]byte("another-secret"), time.Hour, admin.WithArgon2(fastArgon()))
	foreign, _, err := other.SignIn(ctx, "admin@dkopi.com", "pw")
	require.NoError(t, err)
	_, err = a.Verify(ctx, foreign)
	require.ErrorIs(t, err, admin.ErrInvalidToken)

	_, err = a.Verify(ctx, "not.a.token")
	require.ErrorIs(t, err, admin.ErrInvalidToken)
}
