// Package notification implements the notification state repository using
// PostgreSQL. Uniqueness and terminal-state transitions are enforced by the
// database, never by in-process locks: concurrent writers race on the unique
// key constraint and on conditional UPDATEs.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/opsboard/backend/internal/adapter/postgres"
	"github.com/opsboard/backend/internal/domain"
)

// Repo provides notification state persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new notification state repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const stateColumns = `id, source_feed, transaction_id, event_type, payload_snapshot,
       is_handled, is_dismissed, priority, requires_action,
       created_at, expires_at, handled_at, handled_by`

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const upsertIfAbsentSQL = `
INSERT INTO notification_states
  (id, source_feed, transaction_id, event_type, payload_snapshot,
   is_handled, is_dismissed, priority, requires_action,
   created_at, expires_at, handled_at, handled_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT ON CONSTRAINT uq_notification_states_key DO NOTHING
RETURNING ` + stateColumns

const getByKeySQL = `
SELECT ` + stateColumns + `
FROM notification_states
WHERE source_feed = $1 AND transaction_id = $2 AND event_type = $3`

const markResolvedSQL = `
UPDATE notification_states
SET is_handled   = is_handled OR $4,
    is_dismissed = is_dismissed OR $5,
    handled_at   = $6,
    handled_by   = $7
WHERE source_feed = $1 AND transaction_id = $2 AND event_type = $3
  AND NOT is_handled AND NOT is_dismissed
RETURNING ` + stateColumns

const listDueForExpirySQL = `
SELECT ` + stateColumns + `
FROM notification_states
WHERE NOT is_handled AND NOT is_dismissed AND expires_at <= $1
ORDER BY expires_at
LIMIT $2`

const listResolvedBeforeSQL = `
SELECT ` + stateColumns + `
FROM notification_states
WHERE (is_handled OR is_dismissed) AND handled_at < $1
ORDER BY handled_at
LIMIT $2`

const countByStatusSQL = `
SELECT count(*) FILTER (WHERE NOT is_handled AND NOT is_dismissed) AS pending,
       count(*) FILTER (WHERE is_handled)                          AS handled,
       count(*) FILTER (WHERE is_dismissed AND NOT is_handled)     AS dismissed
FROM notification_states`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// upsertAttempts bounds the insert/fetch loop in UpsertIfAbsent. One retry
// would do; the margin costs nothing.
const upsertAttempts = 3

// UpsertIfAbsent inserts the notification unless one already exists for its
// key. Returns the persisted row and true when this call created it, or the
// pre-existing row and false when another writer got there first. The losing
// side of a concurrent race lands on the false branch, never on an error.
func (r *Repo) UpsertIfAbsent(ctx context.Context, n domain.NotificationState) (domain.NotificationState, bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		row := q.QueryRow(ctx, upsertIfAbsentSQL,
			n.ID, string(n.Key.SourceFeed), n.Key.TransactionID, string(n.Key.EventType), n.PayloadSnapshot,
			n.IsHandled, n.IsDismissed, string(n.Priority), n.RequiresAction,
			n.CreatedAt, n.ExpiresAt, n.HandledAt, n.HandledBy,
		)

		created, err := scanState(row)
		if err == nil {
			return created, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.NotificationState{}, false, mapError(err, "notification_state", n.Key.String())
		}

		// Conflict: the row already exists, fetch it.
		existing, err := r.Get(ctx, n.Key)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.NotificationState{}, false, err
		}
		// The row vanished between the insert and the read (a purge took
		// it). Go around and insert again.
	}

	return domain.NotificationState{}, false, fmt.Errorf("upsert %s: conflicting row kept vanishing: %w", n.Key, domain.ErrNotFound)
}

// MarkResolved applies a terminal transition as a conditional UPDATE. The
// guard on both flags makes the transition first-wins under concurrency.
// Returns domain.ErrTerminalState with the current row when the notification
// was already resolved, domain.ErrNotFound when no row exists for the key.
func (r *Repo) MarkResolved(ctx context.Context, key domain.Key, p domain.ResolveParams) (domain.NotificationState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	at := p.At.UTC()
	row := q.QueryRow(ctx, markResolvedSQL,
		string(key.SourceFeed), key.TransactionID, string(key.EventType),
		p.Handled, !p.Handled, at, p.Actor,
	)

	updated, err := scanState(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.NotificationState{}, mapError(err, "notification_state", key.String())
	}

	// Zero rows updated: either the key is unknown or the row is already
	// terminal. Re-read to tell the two apart.
	current, getErr := r.Get(ctx, key)
	if getErr != nil {
		return domain.NotificationState{}, getErr
	}
	return current, fmt.Errorf("notification_state %s: %w", key, domain.ErrTerminalState)
}

// DeleteByIDs removes notification rows by primary key and returns how many
// were deleted. Missing IDs are not an error.
func (r *Repo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM notification_states WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete notification_states: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the notification for a dedup key.
// Returns domain.ErrNotFound if no row exists.
func (r *Repo) Get(ctx context.Context, key domain.Key) (domain.NotificationState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, getByKeySQL,
		string(key.SourceFeed), key.TransactionID, string(key.EventType))

	state, err := scanState(row)
	if err != nil {
		return domain.NotificationState{}, mapError(err, "notification_state", key.String())
	}

	return state, nil
}

// ListPending returns unresolved notifications, newest first.
func (r *Repo) ListPending(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error) {
	builder := sq.Select("id", "source_feed", "transaction_id", "event_type", "payload_snapshot",
		"is_handled", "is_dismissed", "priority", "requires_action",
		"created_at", "expires_at", "handled_at", "handled_by").
		From("notification_states").
		Where(sq.Eq{"is_handled": false, "is_dismissed": false}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Feed != nil {
		builder = builder.Where(sq.Eq{"source_feed": string(*filter.Feed)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	defer rows.Close()

	states, err := scanStates(rows)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}

	return states, nil
}

// ListDueForExpiry returns unresolved notifications whose deadline has
// passed, oldest deadline first.
func (r *Repo) ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]domain.NotificationState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listDueForExpirySQL, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list due for expiry: %w", err)
	}
	defer rows.Close()

	states, err := scanStates(rows)
	if err != nil {
		return nil, fmt.Errorf("list due for expiry: %w", err)
	}

	return states, nil
}

// ListResolvedBefore returns terminal notifications resolved before the
// cutoff, oldest first. Purge feeds on this.
func (r *Repo) ListResolvedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.NotificationState, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listResolvedBeforeSQL, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list resolved before: %w", err)
	}
	defer rows.Close()

	states, err := scanStates(rows)
	if err != nil {
		return nil, fmt.Errorf("list resolved before: %w", err)
	}

	return states, nil
}

// CountByStatus returns row counts per lifecycle bucket. A row that is both
// handled and dismissed counts as handled.
func (r *Repo) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var counts domain.StatusCounts
	err := q.QueryRow(ctx, countByStatusSQL).Scan(&counts.Pending, &counts.Handled, &counts.Dismissed)
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count notifications by status: %w", err)
	}

	return counts, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

// scanState scans a single notification row.
func scanState(row pgx.Row) (domain.NotificationState, error) {
	var (
		n          domain.NotificationState
		sourceFeed string
		eventType  string
		priority   string
	)

	err := row.Scan(&n.ID, &sourceFeed, &n.Key.TransactionID, &eventType, &n.PayloadSnapshot,
		&n.IsHandled, &n.IsDismissed, &priority, &n.RequiresAction,
		&n.CreatedAt, &n.ExpiresAt, &n.HandledAt, &n.HandledBy)
	if err != nil {
		return domain.NotificationState{}, err
	}

	n.Key.SourceFeed = domain.SourceFeed(sourceFeed)
	n.Key.EventType = domain.EventType(eventType)
	n.Priority = domain.Priority(priority)

	return n, nil
}

// scanStates scans multiple rows into a NotificationState slice.
func scanStates(rows pgx.Rows) ([]domain.NotificationState, error) {
	var states []domain.NotificationState
	for rows.Next() {
		n, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if states == nil {
		states = []domain.NotificationState{}
	}

	return states, nil
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity, ref string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, ref, err)
	}

	// pgx.ErrNoRows -> domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, ref, domain.ErrNotFound)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, ref, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, ref, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, ref, domain.ErrValidation)
		}
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s %s: %w", entity, ref, err)
}
