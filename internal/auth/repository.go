package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panelkit/panelkit/internal/shared"
)

// Repository provides PostgreSQL backed account lookup for login.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByEmail fetches a login account by email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Account, error) {
	const query = `
		SELECT id, email, password_hash, role_tag, COALESCE(role_id, 0), is_active
		FROM users
		WHERE LOWER(email) = LOWER($1)`
	var acc Account
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.Tag, &acc.RoleID, &acc.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, fmt.Errorf("auth: find account: %w", errors.Join(shared.ErrStorage, err))
	}
	return acc, nil
}
