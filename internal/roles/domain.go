package roles

import (
	"strings"
	"time"
)

// Role represents a named bundle of per-module permissions. The name is
// stored lowercase and is unique case-insensitively.
type Role struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	IsActive    bool              `json:"is_active"`
	Permissions []PermissionEntry `json:"permissions"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// PermissionEntry is the per-module action set embedded in a role. Entries
// are normalized at write time: All true forces the four action flags true,
// so stored flags are always consistent with All.
type PermissionEntry struct {
	ModuleID int64  `json:"module_id"`
	Module   string `json:"module"`
	View     bool   `json:"view"`
	Add      bool   `json:"add"`
	Edit     bool   `json:"edit"`
	Delete   bool   `json:"delete"`
	All      bool   `json:"all"`
}

// PermissionInput is the raw shape accepted by the replace-permissions
// operation. Omitted flags default to false.
type PermissionInput struct {
	Module string `json:"module" validate:"required"`
	View   bool   `json:"view"`
	Add    bool   `json:"add"`
	Edit   bool   `json:"edit"`
	Delete bool   `json:"delete"`
	All    bool   `json:"all"`
}

// ModuleRef is the registry view the role store needs when resolving
// permission entries against modules.
type ModuleRef struct {
	ID    int64
	Name  string
	Label string
}

// ResolvedPermission is a permission entry with its module label resolved
// for permission-editing UI flows.
type ResolvedPermission struct {
	Module string `json:"module"`
	Label  string `json:"label"`
	View   bool   `json:"view"`
	Add    bool   `json:"add"`
	Edit   bool   `json:"edit"`
	Delete bool   `json:"delete"`
	All    bool   `json:"all"`
}

// NormalizeName lowercases and trims a role or module name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeEntry computes the stored permission entry for an input bound to
// a resolved module.
func NormalizeEntry(in PermissionInput, ref ModuleRef) PermissionEntry {
	entry := PermissionEntry{
		ModuleID: ref.ID,
		Module:   ref.Name,
		View:     in.View,
		Add:      in.Add,
		Edit:     in.Edit,
		Delete:   in.Delete,
		All:      in.All,
	}
	if entry.All {
		entry.View = true
		entry.Add = true
		entry.Edit = true
		entry.Delete = true
	}
	return entry
}
