package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/panelkit/panelkit/internal/shared"
)

type mockAccounts struct {
	accounts map[string]Account
}

func (m *mockAccounts) FindByEmail(_ context.Context, email string) (Account, error) {
	acc, ok := m.accounts[email]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return acc, nil
}

func accountsWith(t *testing.T, password string, active bool) *mockAccounts {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockAccounts{accounts: map[string]Account{
		"admin@panelkit.local": {
			ID:           1,
			Email:        "admin@panelkit.local",
			PasswordHash: string(hash),
			Tag:          SuperuserTag,
			IsActive:     active,
		},
	}}
}

func TestLoginSuccess(t *testing.T) {
	svc := NewService(accountsWith(t, "s3cret-pass", true), testTokenManager(), nil)
	token, claims, err := svc.Login(t.Context(), "admin@panelkit.local", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, SuperuserTag, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(accountsWith(t, "s3cret-pass", true), testTokenManager(), nil)
	_, _, err := svc.Login(t.Context(), "admin@panelkit.local", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewService(accountsWith(t, "s3cret-pass", true), testTokenManager(), nil)
	_, _, err := svc.Login(t.Context(), "nobody@panelkit.local", "s3cret-pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc := NewService(accountsWith(t, "s3cret-pass", false), testTokenManager(), nil)
	_, _, err := svc.Login(t.Context(), "admin@panelkit.local", "s3cret-pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	revoked := NewRevocationList(client)

	tokens := testTokenManager()
	svc := NewService(accountsWith(t, "s3cret-pass", true), tokens, revoked)

	_, claims, err := svc.Login(t.Context(), "admin@panelkit.local", "s3cret-pass")
	require.NoError(t, err)

	identity, err := claims.Identity()
	require.NoError(t, err)
	require.NoError(t, svc.Logout(t.Context(), identity))

	listed, err := revoked.IsRevoked(t.Context(), identity.TokenID)
	require.NoError(t, err)
	assert.True(t, listed)
}
