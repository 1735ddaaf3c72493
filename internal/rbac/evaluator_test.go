package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/roles"
)

func supportRole() roles.Role {
	return roles.Role{
		ID:       7,
		Name:     "support",
		IsActive: true,
		Permissions: []roles.PermissionEntry{
			{ModuleID: 1, Module: "users", View: true},
		},
	}
}

func TestEvaluateViewAllowed(t *testing.T) {
	d, err := Evaluate(supportRole(), "users", ActionView)
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}

func TestEvaluateActionDenied(t *testing.T) {
	d, err := Evaluate(supportRole(), "users", ActionAdd)
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Equal(t, DecisionActionDenied, d)
}

func TestEvaluateMissingModuleDenies(t *testing.T) {
	// Absence of an entry is an implicit deny, not an error.
	d, err := Evaluate(supportRole(), "billing", ActionView)
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Equal(t, DecisionNoEntry, d)
}

func TestEvaluateEmptyRoleDeniesEverything(t *testing.T) {
	role := roles.Role{ID: 1, Name: "empty"}
	for _, action := range []Action{ActionView, ActionAdd, ActionEdit, ActionDelete} {
		d, err := Evaluate(role, "users", action)
		require.NoError(t, err)
		assert.False(t, d.Allowed(), "action %s", action)
	}
}

func TestEvaluateAllOverridesStoredFlags(t *testing.T) {
	// All=true grants every action even when individual flags are stale.
	role := roles.Role{
		ID:   2,
		Name: "manager",
		Permissions: []roles.PermissionEntry{
			{ModuleID: 3, Module: "categories", All: true},
		},
	}
	for _, action := range []Action{ActionView, ActionAdd, ActionEdit, ActionDelete} {
		d, err := Evaluate(role, "categories", action)
		require.NoError(t, err)
		assert.True(t, d.Allowed(), "action %s", action)
	}
}

func TestEvaluateModuleMatchIsExact(t *testing.T) {
	d, err := Evaluate(supportRole(), "Users", ActionView)
	require.NoError(t, err)
	assert.Equal(t, DecisionNoEntry, d)
}

func TestEvaluateInvalidAction(t *testing.T) {
	_, err := Evaluate(supportRole(), "users", Action("publish"))
	require.ErrorIs(t, err, ErrInvalidAction)
}
