package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/panelkit/panelkit/internal/shared"
)

type mockRepo struct {
	createdHash string
	updatedHash string
}

func (m *mockRepo) List(context.Context, shared.ListFilters) ([]User, int, error) {
	return nil, 0, nil
}

func (m *mockRepo) Get(context.Context, int64) (User, error) {
	return User{}, shared.ErrNotFound
}

func (m *mockRepo) Create(_ context.Context, u User, passwordHash string) (User, error) {
	m.createdHash = passwordHash
	u.ID = 1
	return u, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, u User, passwordHash string) (User, error) {
	m.updatedHash = passwordHash
	u.ID = id
	return u, nil
}

func (m *mockRepo) Delete(context.Context, int64) error { return nil }

func newTestService(repo RepositoryPort) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, nil)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	created, err := svc.CreateUser(t.Context(), User{Email: " Admin@Panelkit.Local ", Name: "Admin"}, "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "admin@panelkit.local", created.Email)
	require.NotEmpty(t, repo.createdHash)
	assert.NotEqual(t, "s3cret-pass", repo.createdHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdHash), []byte("s3cret-pass")))
}

func TestCreateUserRequiresEmail(t *testing.T) {
	svc := newTestService(&mockRepo{})
	_, err := svc.CreateUser(t.Context(), User{}, "s3cret-pass")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateUserRejectsShortPassword(t *testing.T) {
	svc := newTestService(&mockRepo{})
	_, err := svc.CreateUser(t.Context(), User{Email: "a@b.c"}, "short")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateUserEmptyPasswordKeepsHash(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	_, err := svc.UpdateUser(t.Context(), 1, User{Email: "a@b.c"}, "")
	require.NoError(t, err)
	assert.Empty(t, repo.updatedHash)
}

func TestUpdateUserRehashesNewPassword(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)
	_, err := svc.UpdateUser(t.Context(), 1, User{Email: "a@b.c"}, "brand-new-pass")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updatedHash), []byte("brand-new-pass")))
}
