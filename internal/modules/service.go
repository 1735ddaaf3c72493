package modules

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/panelkit/panelkit/internal/shared"
)

// RepositoryPort defines data access methods for the registry.
type RepositoryPort interface {
	ListActive(ctx context.Context) ([]Module, error)
	ListAll(ctx context.Context) ([]Module, error)
	Get(ctx context.Context, id int64) (Module, error)
	FindByNames(ctx context.Context, names []string) ([]Module, error)
	Create(ctx context.Context, m Module) (Module, error)
	Update(ctx context.Context, id int64, m Module) (Module, error)
	Delete(ctx context.Context, id int64) error
}

var labelCaser = cases.Title(language.English)

// Service handles module registry business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListActiveModules returns active modules ordered by ord ascending.
func (s *Service) ListActiveModules(ctx context.Context) ([]Module, error) {
	return s.repo.ListActive(ctx)
}

// ListAllModules is the administrative listing; the activation flag is
// ignored.
func (s *Service) ListAllModules(ctx context.Context) ([]Module, error) {
	return s.repo.ListAll(ctx)
}

// GetModule fetches one module by ID.
func (s *Service) GetModule(ctx context.Context, id int64) (Module, error) {
	return s.repo.Get(ctx, id)
}

// FindByNames fetches modules by their normalized names.
func (s *Service) FindByNames(ctx context.Context, names []string) ([]Module, error) {
	return s.repo.FindByNames(ctx, names)
}

// CreateModule registers a new module. The name is normalized lowercase;
// a missing label defaults to the title-cased name.
func (s *Service) CreateModule(ctx context.Context, m Module) (Module, error) {
	normalized, err := normalize(m)
	if err != nil {
		return Module{}, err
	}
	return s.repo.Create(ctx, normalized)
}

// UpdateModule overwrites module fields.
func (s *Service) UpdateModule(ctx context.Context, id int64, m Module) (Module, error) {
	normalized, err := normalize(m)
	if err != nil {
		return Module{}, err
	}
	return s.repo.Update(ctx, id, normalized)
}

// DeleteModule removes a module. Permission entries naming it become dead
// entries that the evaluator treats as deny; they are cleaned up the next
// time a role's permissions are replaced.
func (s *Service) DeleteModule(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(m Module) (Module, error) {
	m.Name = strings.ToLower(strings.TrimSpace(m.Name))
	if m.Name == "" {
		return Module{}, fmt.Errorf("%w: module name is required", shared.ErrValidation)
	}
	m.Label = strings.TrimSpace(m.Label)
	if m.Label == "" {
		m.Label = labelCaser.String(m.Name)
	}
	return m, nil
}
