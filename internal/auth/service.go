package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/panelkit/panelkit/internal/shared"
)

// AccountSource defines account lookup for login.
type AccountSource interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo    AccountSource
	tokens  *TokenManager
	revoked *RevocationList
}

// NewService constructs a new Service.
func NewService(repo AccountSource, tokens *TokenManager, revoked *RevocationList) *Service {
	return &Service{repo: repo, tokens: tokens, revoked: revoked}
}

// Login validates email/password credentials and issues a bearer token.
// All failure modes collapse into ErrInvalidCredentials so callers cannot
// probe which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Claims, error) {
	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !acc.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	return s.issue(acc)
}

func (s *Service) issue(acc Account) (string, *Claims, error) {
	token, claims, err := s.tokens.Issue(acc.ID, acc.Tag, acc.RoleID)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, identity Identity) error {
	if s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, identity.TokenID, identity.ExpiresAt)
}
