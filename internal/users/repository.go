package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panelkit/panelkit/internal/shared"
)

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = "id, email, name, role_tag, COALESCE(role_id, 0), is_active, created_at, updated_at"

// List returns a page of users plus the total count. Search matches email
// or name case-insensitively.
func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM users WHERE 1=1`
	args := []any{}
	countArgs := []any{}
	argCount := 0

	if filters.Search != "" {
		pattern := "%" + shared.EscapeLike(filters.Search) + "%"
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		query += ` AND (email ILIKE ` + placeholder + ` OR name ILIKE ` + placeholder + `)`
		args = append(args, pattern)
		countQuery += ` AND (email ILIKE $1 OR name ILIKE $1)`
		countArgs = append(countArgs, pattern)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", errors.Join(shared.ErrStorage, err))
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", errors.Join(shared.ErrStorage, err))
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("users: scan: %w", errors.Join(shared.ErrStorage, err))
		}
		result = append(result, u)
	}
	return result, total, rows.Err()
}

// Get fetches a user by ID.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", errors.Join(shared.ErrStorage, err))
	}
	return u, nil
}

// Create inserts a new account with the given bcrypt hash.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) (User, error) {
	const query = `
		INSERT INTO users (email, name, password_hash, role_tag, role_id, is_active)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6)
		RETURNING ` + userColumns
	created, err := scanUser(r.pool.QueryRow(ctx, query, u.Email, u.Name, passwordHash, u.Tag, u.RoleID, u.IsActive))
	if err != nil {
		return User{}, mapWriteError("users: create", err)
	}
	return created, nil
}

// Update overwrites account fields; the password hash is only touched when
// non-empty.
func (r *Repository) Update(ctx context.Context, id int64, u User, passwordHash string) (User, error) {
	const query = `
		UPDATE users
		SET name = $2,
		    role_tag = $3,
		    role_id = NULLIF($4, 0),
		    is_active = $5,
		    password_hash = CASE WHEN $6 = '' THEN password_hash ELSE $6 END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	updated, err := scanUser(r.pool.QueryRow(ctx, query, id, u.Name, u.Tag, u.RoleID, u.IsActive, passwordHash))
	if err != nil {
		return User{}, mapWriteError("users: update", err)
	}
	return updated, nil
}

// Delete removes an account.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", errors.Join(shared.ErrStorage, err))
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Tag, &u.RoleID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func mapWriteError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, errors.Join(shared.ErrStorage, err))
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "email":
		return "email " + dir
	case "created_at":
		return "created_at " + dir
	case "is_active":
		return "is_active " + dir
	default:
		return "name " + dir
	}
}
