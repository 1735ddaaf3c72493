package modules

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panelkit/panelkit/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the module
// registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const moduleColumns = "id, name, label, icon, is_active, ord, created_at, updated_at"

// ListActive returns active modules ordered by ord ascending.
func (r *Repository) ListActive(ctx context.Context) ([]Module, error) {
	const query = `SELECT ` + moduleColumns + ` FROM modules WHERE is_active ORDER BY ord ASC, name ASC`
	return r.list(ctx, query)
}

// ListAll returns every module regardless of activation, for the
// permission-editing flows.
func (r *Repository) ListAll(ctx context.Context) ([]Module, error) {
	const query = `SELECT ` + moduleColumns + ` FROM modules ORDER BY ord ASC, name ASC`
	return r.list(ctx, query)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Module, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("modules: list: %w", errors.Join(shared.ErrStorage, err))
	}
	defer rows.Close()

	var result []Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("modules: scan: %w", errors.Join(shared.ErrStorage, err))
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Get fetches a module by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Module, error) {
	const query = `SELECT ` + moduleColumns + ` FROM modules WHERE id = $1`
	m, err := scanModule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Module{}, shared.ErrNotFound
		}
		return Module{}, fmt.Errorf("modules: get: %w", errors.Join(shared.ErrStorage, err))
	}
	return m, nil
}

// FindByNames fetches the modules whose normalized names appear in the
// given set. Missing names are simply absent from the result.
func (r *Repository) FindByNames(ctx context.Context, names []string) ([]Module, error) {
	if len(names) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + moduleColumns + ` FROM modules WHERE name = ANY($1)`
	return r.list(ctx, query, names)
}

// Create inserts a new module.
func (r *Repository) Create(ctx context.Context, m Module) (Module, error) {
	const query = `
		INSERT INTO modules (name, label, icon, is_active, ord)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + moduleColumns
	created, err := scanModule(r.pool.QueryRow(ctx, query, m.Name, m.Label, m.Icon, m.IsActive, m.Ord))
	if err != nil {
		return Module{}, mapWriteError("modules: create", err)
	}
	return created, nil
}

// Update overwrites module fields.
func (r *Repository) Update(ctx context.Context, id int64, m Module) (Module, error) {
	const query = `
		UPDATE modules
		SET name = $2, label = $3, icon = $4, is_active = $5, ord = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + moduleColumns
	updated, err := scanModule(r.pool.QueryRow(ctx, query, id, m.Name, m.Label, m.Icon, m.IsActive, m.Ord))
	if err != nil {
		return Module{}, mapWriteError("modules: update", err)
	}
	return updated, nil
}

// Delete removes a module from the registry.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("modules: delete: %w", errors.Join(shared.ErrStorage, err))
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanModule(row pgx.Row) (Module, error) {
	var m Module
	err := row.Scan(&m.ID, &m.Name, &m.Label, &m.Icon, &m.IsActive, &m.Ord, &m.CreatedAt, &m.UpdatedAt)
	return m, err
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
