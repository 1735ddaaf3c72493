package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panelkit/panelkit/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles. The
// permission collection lives in a single jsonb column so a full
// replacement is one atomic row write.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = "id, name, is_active, permissions, created_at, updated_at"

// Create inserts a new role with an empty permission collection.
func (r *Repository) Create(ctx context.Context, name string) (Role, error) {
	const query = `
		INSERT INTO roles (name, is_active, permissions)
		VALUES ($1, TRUE, '[]')
		RETURNING ` + roleColumns
	row := r.pool.QueryRow(ctx, query, name)
	role, err := scanRole(row)
	if err != nil {
		return Role{}, mapWriteError("roles: create", err)
	}
	return role, nil
}

// Find fetches a role by ID.
func (r *Repository) Find(ctx context.Context, id int64) (Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`
	role, err := scanRole(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, fmt.Errorf("roles: find: %w", errors.Join(shared.ErrStorage, err))
	}
	return role, nil
}

// List returns a page of roles plus the total count. Search is a
// case-insensitive substring match on name.
func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]Role, int, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM roles WHERE 1=1`
	args := []any{}
	countArgs := []any{}
	argCount := 0

	if filters.Search != "" {
		pattern := "%" + shared.EscapeLike(filters.Search) + "%"
		argCount++
		query += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, pattern)
		countQuery += ` AND name ILIKE $1`
		countArgs = append(countArgs, pattern)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("roles: count: %w", errors.Join(shared.ErrStorage, err))
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
		return nil, 0, fmt.Errorf("roles: list: %w", errors.Join(shared.ErrStorage, err))
	}
	defer rows.Close()

	var result []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("roles: scan: %w", errors.Join(shared.ErrStorage, err))
		}
		result = append(result, role)
	}
	return result, total, rows.Err()
}

// UpdateMeta updates name and/or activation flag; nil fields are left
// untouched.
func (r *Repository) UpdateMeta(ctx context.Context, id int64, name *string, isActive *bool) (Role, error) {
	const query = `
		UPDATE roles
		SET name = COALESCE($2, name),
		    is_active = COALESCE($3, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + roleColumns
	role, err := scanRole(r.pool.QueryRow(ctx, query, id, name, isActive))
	if err != nil {
		return Role{}, mapWriteError("roles: update meta", err)
	}
	return role, nil
}

// Delete removes a role and, with it, every embedded permission entry.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("roles: delete: %w", errors.Join(shared.ErrStorage, err))
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplacePermissions overwrites the role's whole permission collection in
// one row write.
func (r *Repository) ReplacePermissions(ctx context.Context, id int64, entries []PermissionEntry) (Role, error) {
	if entries == nil {
		entries = []PermissionEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return Role{}, fmt.Errorf("roles: marshal permissions: %w", err)
	}
	const query = `
		UPDATE roles
		SET permissions = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + roleColumns
	role, err := scanRole(r.pool.QueryRow(ctx, query, id, payload))
	if err != nil {
		return Role{}, mapWriteError("roles: replace permissions", err)
	}
	return role, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	var permissions []byte
	if err := row.Scan(&role.ID, &role.Name, &role.IsActive, &permissions, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, err
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
			return Role{}, err
		}
	}
	if role.Permissions == nil {
		role.Permissions = []PermissionEntry{}
	}
	return role, nil
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
	case "created_at":
		return "created_at " + dir
	case "updated_at":
		return "updated_at " + dir
	case "is_active":
		return "is_active " + dir
	default:
		return "name " + dir
	}
}
