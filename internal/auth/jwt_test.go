package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenManager() *TokenManager {
	return NewTokenManager("test-secret", "panelkit", time.Hour)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := testTokenManager()
	token, issued, err := m.Issue(42, "staff", 7)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, issued.ID)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, int64(7), claims.RoleID)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestVerifyExpiredToken(t *testing.T) {
	m := testTokenManager()
	token, _, err := m.Issue(1, "staff", 0)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := testTokenManager().Issue(1, "staff", 0)
	require.NoError(t, err)

	other := NewTokenManager("different-secret", "panelkit", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIssuerMismatch(t *testing.T) {
	foreign := NewTokenManager("test-secret", "someone-else", time.Hour)
	token, _, err := foreign.Issue(1, "staff", 0)
	require.NoError(t, err)

	_, err = testTokenManager().Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := testTokenManager().Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsIdentityPrivilege(t *testing.T) {
	m := testTokenManager()

	_, claims, err := m.Issue(9, SuperuserTag, 0)
	require.NoError(t, err)
	identity, err := claims.Identity()
	require.NoError(t, err)
	assert.True(t, identity.IsSuperuser())
	assert.Equal(t, int64(9), identity.UserID)
	assert.Equal(t, claims.ID, identity.TokenID)
	assert.False(t, identity.ExpiresAt.IsZero())

	_, claims, err = m.Issue(10, "staff", 3)
	require.NoError(t, err)
	identity, err = claims.Identity()
	require.NoError(t, err)
	assert.False(t, identity.IsSuperuser())
	assert.Equal(t, int64(3), identity.RoleID)
}
