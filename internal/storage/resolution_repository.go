package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Resolution is one row of the resolution log: a record of a single
// query-resolution attempt, kept for cost tracking and debugging. The
// pipeline itself holds no state — this log is observability only.
type Resolution struct {
	ID         int64   `db:"id"`
	Query      string  `db:"query"`
	Provider   string  `db:"provider"`
	Model      string  `db:"model"`
	MatchCount int     `db:"match_count"`
	Success    bool    `db:"success"`
	ErrorKind  *string `db:"error_kind"`
	DurationMs *int64  `db:"duration_ms"`
	CreatedAt  string  `db:"created_at"`
}

// ResolutionRepository persists resolution-log rows.
// Export the interface, hide the implementation — callers can fake this
// in tests without touching SQLite.
type ResolutionRepository interface {
	Create(ctx context.Context, res *Resolution) error
	Count(ctx context.Context) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]Resolution, error)
}

type sqliteResolutionRepository struct {
	db *sqlx.DB
}

// NewResolutionRepository creates a SQLite-backed ResolutionRepository.
func NewResolutionRepository(db *sqlx.DB) ResolutionRepository {
	return &sqliteResolutionRepository{db: db}
}

func (r *sqliteResolutionRepository) Create(ctx context.Context, res *Resolution) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO resolutions (query, provider, model, match_count, success, error_kind, duration_ms)
		VALUES (:query, :provider, :model, :match_count, :success, :error_kind, :duration_ms)
	`, res)
	if err != nil {
		return fmt.Errorf("creating resolution record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	res.ID = id
	return nil
}

func (r *sqliteResolutionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM resolutions")
	return count, err
}

func (r *sqliteResolutionRepository) ListRecent(ctx context.Context, limit int) ([]Resolution, error) {
	var rows []Resolution
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM resolutions ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent resolutions: %w", err)
	}
	return rows, nil
}
