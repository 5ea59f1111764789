package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// RetentionRepo stores the sweep marker in a single-row table.
type RetentionRepo struct {
	pool *pgxpool.Pool
}

func NewRetentionRepo(pool *pgxpool.Pool) *RetentionRepo {
	return &RetentionRepo{pool: pool}
}

func (r *RetentionRepo) LastResetAt(ctx context.Context) (time.Time, bool, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx, `SELECT last_reset_at FROM dm_retention_state WHERE id = 1`).Scan(&at)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "retentionRepo.LastResetAt.Scan")
	}
	return at, true, nil
}

func (r *RetentionRepo) SetLastResetAt(ctx context.Context, at time.Time) error {
	query := `
		INSERT INTO dm_retention_state (id, last_reset_at)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_reset_at = EXCLUDED.last_reset_at`
	_, err := r.pool.Exec(ctx, query, at)
	return errors.Wrap(err, "retentionRepo.SetLastResetAt.Exec")
}
