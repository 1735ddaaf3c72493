package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/panelkit/panelkit/internal/audit"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Create(ctx context.Context, name string) (Role, error)
	Find(ctx context.Context, id int64) (Role, error)
	List(ctx context.Context, filters shared.ListFilters) ([]Role, int, error)
	UpdateMeta(ctx context.Context, id int64, name *string, isActive *bool) (Role, error)
	Delete(ctx context.Context, id int64) error
	ReplacePermissions(ctx context.Context, id int64, entries []PermissionEntry) (Role, error)
}

// ModuleResolver resolves normalized module names against the registry.
type ModuleResolver interface {
	ResolveNames(ctx context.Context, names []string) (map[string]ModuleRef, error)
}

// AuditRecorder records mutations for the audit trail. Best effort; never
// on the request's critical path.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Service handles role business logic.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	modules ModuleResolver
	auditor AuditRecorder
}

// NewService builds a Service instance. The auditor may be nil.
func NewService(logger *slog.Logger, repo RepositoryPort, modules ModuleResolver, auditor AuditRecorder) *Service {
	return &Service{logger: logger, repo: repo, modules: modules, auditor: auditor}
}

// CreateRole persists a new role with an empty permission collection. The
// name is normalized to lowercase, so uniqueness is case-insensitive.
func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	role, err := s.repo.Create(ctx, normalized)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, "role.create", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// FindRole fetches a role by ID.
func (s *Service) FindRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.Find(ctx, id)
}

// ListRoles returns a page of roles and the total count.
func (s *Service) ListRoles(ctx context.Context, filters shared.ListFilters) ([]Role, int, error) {
	return s.repo.List(ctx, filters.Clamp())
}

// UpdateRoleMeta updates only the supplied fields.
func (s *Service) UpdateRoleMeta(ctx context.Context, id int64, name *string, isActive *bool) (Role, error) {
	if name != nil {
		normalized := NormalizeName(*name)
		if normalized == "" {
			return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
		}
		name = &normalized
	}
	role, err := s.repo.UpdateMeta(ctx, id, name, isActive)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, "role.update", role.ID, map[string]any{"name": role.Name, "is_active": role.IsActive})
	return role, nil
}

// DeleteRole removes a role and its embedded permission entries.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "role.delete", id, nil)
	return nil
}

// ReplacePermissions swaps the role's entire permission collection for the
// normalized input set. Entries for modules omitted from the input are
// dropped, not preserved. Each input module must exist in the registry;
// when a module appears twice the later entry wins.
func (s *Service) ReplacePermissions(ctx context.Context, roleID int64, inputs []PermissionInput) (Role, error) {
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		names = append(names, NormalizeName(in.Module))
	}
	refs, err := s.modules.ResolveNames(ctx, names)
	if err != nil {
		return Role{}, err
	}

	entries := make([]PermissionEntry, 0, len(inputs))
	position := make(map[string]int, len(inputs))
	for _, in := range inputs {
		name := NormalizeName(in.Module)
		ref, ok := refs[name]
		if !ok {
			return Role{}, fmt.Errorf("%w: unknown module %q", shared.ErrValidation, name)
		}
		entry := NormalizeEntry(in, ref)
		if i, seen := position[name]; seen {
			entries[i] = entry
			continue
		}
		position[name] = len(entries)
		entries = append(entries, entry)
	}

	role, err := s.repo.ReplacePermissions(ctx, roleID, entries)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, "role.permissions.replace", role.ID, map[string]any{"entries": len(entries)})
	return role, nil
}

// GetPermissions returns the role name and its permission entries with
// module labels resolved for editing UIs.
func (s *Service) GetPermissions(ctx context.Context, roleID int64) (string, []ResolvedPermission, error) {
	role, err := s.repo.Find(ctx, roleID)
	if err != nil {
		return "", nil, err
	}
	names := make([]string, 0, len(role.Permissions))
	for _, entry := range role.Permissions {
		names = append(names, entry.Module)
	}
	refs, err := s.modules.ResolveNames(ctx, names)
	if err != nil {
		return "", nil, err
	}
	resolved := make([]ResolvedPermission, 0, len(role.Permissions))
	for _, entry := range role.Permissions {
		label := entry.Module
		if ref, ok := refs[entry.Module]; ok && ref.Label != "" {
			label = ref.Label
		}
		resolved = append(resolved, ResolvedPermission{
			Module: entry.Module,
			Label:  label,
			View:   entry.View,
			Add:    entry.Add,
			Edit:   entry.Edit,
			Delete: entry.Delete,
			All:    entry.All,
		})
	}
	return role.Name, resolved, nil
}

func (s *Service) record(ctx context.Context, action string, roleID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	var actorID int64
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		actorID = identity.UserID
	}
	err := s.auditor.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record audit entry", slog.String("action", action), slog.Any("error", err))
	}
}
