package auth

import "time"

// SuperuserTag is the coarse role tag that bypasses per-module permission
// checks entirely.
const SuperuserTag = "superadmin"

// Privilege is the caller's coarse privilege level.
type Privilege int

const (
	// PrivilegeRole scopes the caller to its assigned role's permissions.
	PrivilegeRole Privilege = iota
	// PrivilegeSuperuser bypasses permission evaluation.
	PrivilegeSuperuser
)

// Identity describes the authenticated caller for a single request.
// It is derived from a verified token and never persisted.
type Identity struct {
	UserID    int64
	Tag       string
	RoleID    int64
	Privilege Privilege
	TokenID   string
	ExpiresAt time.Time
}

// IsSuperuser reports whether the caller carries the superuser marker.
func (i Identity) IsSuperuser() bool {
	return i.Privilege == PrivilegeSuperuser
}

// Account represents a login account as stored in the users table.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Tag          string
	RoleID       int64
	IsActive     bool
}
