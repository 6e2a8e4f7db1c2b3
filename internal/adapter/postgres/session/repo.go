// Package session implements the dashboard session repository using
// PostgreSQL. Sessions only exist so housekeeping has something to sweep
// and the dashboard can show who is looking at the queue.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/opsboard/backend/internal/adapter/postgres"
)

// Repo provides dashboard session persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new session repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Touch records that an actor is viewing the dashboard now. Each touch
// inserts a fresh row; old rows age out via DeleteSeenBefore.
func (r *Repo) Touch(ctx context.Context, actor string, at time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO dashboard_sessions (id, actor, last_seen_at, created_at)
		 VALUES ($1, $2, $3, $3)`,
		uuid.New(), actor, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("touch dashboard_session for %s: %w", actor, err)
	}

	return nil
}

// DeleteSeenBefore removes sessions last seen before the cutoff and returns
// how many were deleted.
func (r *Repo) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`DELETE FROM dashboard_sessions WHERE last_seen_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete stale dashboard_sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
