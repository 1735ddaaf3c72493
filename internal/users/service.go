package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/panelkit/panelkit/internal/audit"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	List(ctx context.Context, filters shared.ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u User, passwordHash string) (User, error)
	Update(ctx context.Context, id int64, u User, passwordHash string) (User, error)
	Delete(ctx context.Context, id int64) error
}

// AuditRecorder records mutations for the audit trail. Best effort.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Service handles user management business logic.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	auditor AuditRecorder
}

// NewService builds a Service instance. The auditor may be nil.
func NewService(logger *slog.Logger, repo RepositoryPort, auditor AuditRecorder) *Service {
	return &Service{logger: logger, repo: repo, auditor: auditor}
}

// ListUsers returns a page of users and the total count.
func (s *Service) ListUsers(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters.Clamp())
}

// GetUser fetches one user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, u User, password string) (User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return User{}, fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	if len(password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, u, string(hash))
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.create", created.ID, map[string]any{"email": created.Email})
	return created, nil
}

// UpdateUser overwrites account fields; an empty password leaves the hash
// untouched.
func (s *Service) UpdateUser(ctx context.Context, id int64, u User, password string) (User, error) {
	var hash string
	if password != "" {
		if len(password) < 8 {
			return User{}, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		hash = string(hashed)
	}
	updated, err := s.repo.Update(ctx, id, u, hash)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.update", updated.ID, map[string]any{"is_active": updated.IsActive})
	return updated, nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "user.delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, action string, userID int64, meta map[string]any) {
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
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record audit entry", slog.String("action", action), slog.Any("error", err))
	}
}
