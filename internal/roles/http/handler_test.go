package roleshttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/rbac"
	"github.com/panelkit/panelkit/internal/roles"
	"github.com/panelkit/panelkit/internal/shared"
)

// pagedRepo serves a fixed number of roles and records the filters each
// List call actually received.
type pagedRepo struct {
	total       int
	lastFilters shared.ListFilters
}

func (p *pagedRepo) Create(_ context.Context, name string) (roles.Role, error) {
	return roles.Role{ID: 1, Name: name, Permissions: []roles.PermissionEntry{}}, nil
}

func (p *pagedRepo) Find(context.Context, int64) (roles.Role, error) {
	return roles.Role{}, shared.ErrNotFound
}

func (p *pagedRepo) List(_ context.Context, filters shared.ListFilters) ([]roles.Role, int, error) {
	p.lastFilters = filters
	remaining := p.total - filters.Offset()
	if remaining < 0 {
		remaining = 0
	}
	n := filters.Limit
	if n > remaining {
		n = remaining
	}
	out := make([]roles.Role, 0, n)
	for i := 0; i < n; i++ {
		id := int64(filters.Offset() + i + 1)
		out = append(out, roles.Role{ID: id, Name: fmt.Sprintf("role-%d", id)})
	}
	return out, p.total, nil
}

func (p *pagedRepo) UpdateMeta(context.Context, int64, *string, *bool) (roles.Role, error) {
	return roles.Role{}, shared.ErrNotFound
}

func (p *pagedRepo) Delete(context.Context, int64) error { return shared.ErrNotFound }

func (p *pagedRepo) ReplacePermissions(context.Context, int64, []roles.PermissionEntry) (roles.Role, error) {
	return roles.Role{}, shared.ErrNotFound
}

type listEnvelope struct {
	Data       []roles.Role      `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func listRoles(t *testing.T, repo *pagedRepo, target string) listEnvelope {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := roles.NewService(logger, repo, nil, nil)
	guard := rbac.NewMiddleware(service, logger, nil)
	handler := NewHandler(logger, service, guard)

	router := chi.NewRouter()
	handler.MountRoutes(router)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(auth.ContextWithIdentity(req.Context(), auth.Identity{
		UserID:    1,
		Tag:       auth.SuperuserTag,
		Privilege: auth.PrivilegeSuperuser,
	}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestListPaginationReflectsClampedLimit(t *testing.T) {
	repo := &pagedRepo{total: 250}
	envelope := listRoles(t, repo, "/?limit=200")

	assert.Equal(t, shared.MaxPageSize, repo.lastFilters.Limit)
	assert.Len(t, envelope.Data, shared.MaxPageSize)
	// Metadata must describe the page actually served, not the raw query,
	// or rows past page total/limit are unreachable.
	assert.Equal(t, shared.MaxPageSize, envelope.Pagination.PerPage)
	assert.Equal(t, 250, envelope.Pagination.Total)
	assert.Equal(t, 3, envelope.Pagination.TotalPages)
}

func TestListPaginationReflectsClampedPage(t *testing.T) {
	repo := &pagedRepo{total: 25}
	envelope := listRoles(t, repo, "/?page=-2&limit=10")

	assert.Equal(t, 1, repo.lastFilters.Page)
	assert.Equal(t, 1, envelope.Pagination.Page)
	assert.Len(t, envelope.Data, 10)
	assert.Equal(t, int64(1), envelope.Data[0].ID)
}
