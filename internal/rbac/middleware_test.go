package rbac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/audit"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/roles"
	"github.com/panelkit/panelkit/internal/shared"
)

type mockRoleSource struct {
	roles map[int64]roles.Role
	err   error
}

func (m *mockRoleSource) FindRole(_ context.Context, id int64) (roles.Role, error) {
	if m.err != nil {
		return roles.Role{}, m.err
	}
	role, ok := m.roles[id]
	if !ok {
		return roles.Role{}, shared.ErrNotFound
	}
	return role, nil
}

type mockAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *mockAuditor) Record(_ context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditor) last() (audit.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return audit.Entry{}, false
	}
	return m.entries[len(m.entries)-1], true
}

func newTestMiddleware(source RoleSource, auditor AuditRecorder) Middleware {
	return NewMiddleware(source, slog.New(slog.NewTextHandler(io.Discard, nil)), auditor)
}

func doGuarded(t *testing.T, m Middleware, moduleName string, action Action, identity *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var handlerCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	if identity != nil {
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	m.Guard(moduleName, action)(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		require.False(t, handlerCalled, "denied request must not reach the handler")
	}
	return rec
}

func TestGuardMissingIdentityFailsClosed(t *testing.T) {
	m := newTestMiddleware(&mockRoleSource{}, nil)
	rec := doGuarded(t, m, "users", ActionView, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardSuperuserBypassesRoleStore(t *testing.T) {
	// No roles exist anywhere; the superuser tag alone must allow.
	source := &mockRoleSource{roles: map[int64]roles.Role{}}
	m := newTestMiddleware(source, nil)
	identity := auth.Identity{UserID: 1, Tag: auth.SuperuserTag, Privilege: auth.PrivilegeSuperuser}
	rec := doGuarded(t, m, "users", ActionDelete, &identity)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRoleNotFound(t *testing.T) {
	auditor := &mockAuditor{}
	m := newTestMiddleware(&mockRoleSource{roles: map[int64]roles.Role{}}, auditor)
	identity := auth.Identity{UserID: 2, Tag: "staff", RoleID: 99}
	rec := doGuarded(t, m, "users", ActionView, &identity)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "role not found")

	entry, ok := auditor.last()
	require.True(t, ok)
	assert.Equal(t, "authz.deny", entry.Action)
	assert.Equal(t, "role_not_found", entry.Meta["reason"])
}

func TestGuardAllowsPermittedAction(t *testing.T) {
	source := &mockRoleSource{roles: map[int64]roles.Role{
		5: {ID: 5, Name: "support", Permissions: []roles.PermissionEntry{
			{ModuleID: 1, Module: "users", View: true},
		}},
	}}
	m := newTestMiddleware(source, nil)
	identity := auth.Identity{UserID: 3, Tag: "staff", RoleID: 5}
	rec := doGuarded(t, m, "users", ActionView, &identity)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardDistinguishesDenialReasons(t *testing.T) {
	source := &mockRoleSource{roles: map[int64]roles.Role{
		5: {ID: 5, Name: "support", Permissions: []roles.PermissionEntry{
			{ModuleID: 1, Module: "users", View: true},
		}},
	}}
	auditor := &mockAuditor{}
	m := newTestMiddleware(source, auditor)
	identity := auth.Identity{UserID: 3, Tag: "staff", RoleID: 5}

	// Entry exists but the action flag is false.
	rec := doGuarded(t, m, "users", ActionAdd, &identity)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	entry, ok := auditor.last()
	require.True(t, ok)
	assert.Equal(t, "access_denied", entry.Meta["reason"])

	// No entry for the module at all.
	rec = doGuarded(t, m, "billing", ActionView, &identity)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	entry, ok = auditor.last()
	require.True(t, ok)
	assert.Equal(t, "permission_not_assigned", entry.Meta["reason"])
}

func TestGuardStoreFailureDenies(t *testing.T) {
	m := newTestMiddleware(&mockRoleSource{err: shared.ErrStorage}, nil)
	identity := auth.Identity{UserID: 4, Tag: "staff", RoleID: 5}
	rec := doGuarded(t, m, "users", ActionView, &identity)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
