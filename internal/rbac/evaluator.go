// Package rbac decides whether a caller's role permits an action on a
// module and guards HTTP routes with that decision.
package rbac

import (
	"errors"
	"fmt"

	"github.com/panelkit/panelkit/internal/roles"
)

// Action is one of the four per-module permission flags.
type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ErrInvalidAction flags a programming error in the caller: the action is
// not one of the four known flags.
var ErrInvalidAction = errors.New("rbac: invalid action")

// Decision is the outcome of a permission evaluation. The two deny variants
// are kept apart for observability even though callers surface them the
// same way.
type Decision int

const (
	// DecisionAllow grants the request.
	DecisionAllow Decision = iota
	// DecisionNoEntry denies because the role has no entry for the module.
	DecisionNoEntry
	// DecisionActionDenied denies because the entry exists but the action
	// flag is false.
	DecisionActionDenied
)

// Allowed reports whether the decision grants the request.
func (d Decision) Allowed() bool {
	return d == DecisionAllow
}

// Evaluate checks the role's permission entries for the module and action.
// Absence of an entry is an implicit deny, not an error. A found entry
// allows the action when its All flag or the action's own flag is set.
func Evaluate(role roles.Role, moduleName string, action Action) (Decision, error) {
	allowed, found, err := entryAllows(role.Permissions, moduleName, action)
	if err != nil {
		return DecisionNoEntry, err
	}
	switch {
	case !found:
		return DecisionNoEntry, nil
	case allowed:
		return DecisionAllow, nil
	default:
		return DecisionActionDenied, nil
	}
}

func entryAllows(entries []roles.PermissionEntry, moduleName string, action Action) (allowed, found bool, err error) {
	if !validAction(action) {
		return false, false, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	for _, entry := range entries {
		if entry.Module != moduleName {
			continue
		}
		return entry.All || actionFlag(entry, action), true, nil
	}
	return false, false, nil
}

func validAction(action Action) bool {
	switch action {
	case ActionView, ActionAdd, ActionEdit, ActionDelete:
		return true
	}
	return false
}

func actionFlag(entry roles.PermissionEntry, action Action) bool {
	switch action {
	case ActionView:
		return entry.View
	case ActionAdd:
		return entry.Add
	case ActionEdit:
		return entry.Edit
	case ActionDelete:
		return entry.Delete
	}
	return false
}
