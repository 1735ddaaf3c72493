package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/shared"
)

type mockRepo struct {
	created Module
	updated Module
}

func (m *mockRepo) ListActive(context.Context) ([]Module, error) { return nil, nil }
func (m *mockRepo) ListAll(context.Context) ([]Module, error)    { return nil, nil }
func (m *mockRepo) Get(context.Context, int64) (Module, error)   { return Module{}, shared.ErrNotFound }

func (m *mockRepo) FindByNames(_ context.Context, names []string) ([]Module, error) {
	return nil, nil
}

func (m *mockRepo) Create(_ context.Context, mod Module) (Module, error) {
	m.created = mod
	mod.ID = 1
	return mod, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, mod Module) (Module, error) {
	m.updated = mod
	mod.ID = id
	return mod, nil
}

func (m *mockRepo) Delete(context.Context, int64) error { return nil }

func TestCreateModuleNormalizesName(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	created, err := svc.CreateModule(t.Context(), Module{Name: "  Billing ", Label: "Invoices"})
	require.NoError(t, err)
	assert.Equal(t, "billing", created.Name)
	assert.Equal(t, "Invoices", created.Label)
}

func TestCreateModuleDefaultsLabel(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	created, err := svc.CreateModule(t.Context(), Module{Name: "audit logs"})
	require.NoError(t, err)
	assert.Equal(t, "Audit Logs", created.Label)
}

func TestCreateModuleRequiresName(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, err := svc.CreateModule(t.Context(), Module{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateModuleNormalizes(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	updated, err := svc.UpdateModule(t.Context(), 3, Module{Name: "PAGES"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.ID)
	assert.Equal(t, "pages", updated.Name)
	assert.Equal(t, "Pages", updated.Label)
}
