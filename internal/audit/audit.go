// Package audit persists the mutation and denial trail written by the
// background worker.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at,omitempty"`
}

// Store writes entries into audit_logs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a new Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert persists the entry.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	if s == nil {
		return errors.New("audit store not initialised")
	}
	if e.Action == "" || e.Entity == "" || e.EntityID == "" {
		return errors.New("audit entry requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	var at any
	if !e.At.IsZero() {
		at = e.At
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		e.ActorID, e.Action, e.Entity, e.EntityID, metaJSON, at)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// PruneBefore deletes entries older than the cutoff and reports how many
// rows were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
