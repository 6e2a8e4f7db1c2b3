// Package audit implements the notification audit log repository using
// PostgreSQL. The log is append-only: rows are never updated or deleted, so
// a resolved transaction stays resolved even after its state row is purged.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/opsboard/backend/internal/adapter/postgres"
	"github.com/opsboard/backend/internal/domain"
)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const appendSQL = `
INSERT INTO notification_audit_log
  (id, source_feed, transaction_id, event_type, action, state_snapshot, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const listByKeySQL = `
SELECT id, source_feed, transaction_id, event_type, action, state_snapshot, created_at
FROM notification_audit_log
WHERE source_feed = $1 AND transaction_id = $2 AND event_type = $3
ORDER BY created_at DESC
LIMIT $4`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Append inserts a new audit entry and returns it.
func (r *Repo) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	snapshot, err := json.Marshal(entry.StateSnapshot)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("audit_entry %s marshal snapshot: %w", entry.Key, err)
	}

	_, err = q.Exec(ctx, appendSQL,
		entry.ID, string(entry.Key.SourceFeed), entry.Key.TransactionID, string(entry.Key.EventType),
		string(entry.Action), snapshot, entry.CreatedAt,
	)
	if err != nil {
		return domain.AuditEntry{}, mapError(err, "audit_entry", entry.Key.String())
	}

	return entry, nil
}

// Log appends an audit entry without returning it (fire-and-forget).
// Satisfies engine.auditLogger.
func (r *Repo) Log(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.Append(ctx, entry)
	return err
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// SuppressedKeys returns, for a batch of candidate transaction IDs on one
// feed, the subset that has ever recorded a HANDLED or DISMISSED action.
// Reconciliation must never recreate a notification for these.
func (r *Repo) SuppressedKeys(ctx context.Context, feed domain.SourceFeed, transactionIDs []string) (map[string]struct{}, error) {
	suppressed := make(map[string]struct{})
	if len(transactionIDs) == 0 {
		return suppressed, nil
	}

	builder := sq.Select("DISTINCT transaction_id").
		From("notification_audit_log").
		Where(sq.Eq{"source_feed": string(feed)}).
		Where(sq.Eq{"transaction_id": transactionIDs}).
		Where(sq.Eq{"action": []string{string(domain.AuditActionHandled), string(domain.AuditActionDismissed)}}).
		PlaceholderFormat(sq.Dollar)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build suppressed keys query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query suppressed keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var txID string
		if err := rows.Scan(&txID); err != nil {
			return nil, fmt.Errorf("scan suppressed key: %w", err)
		}
		suppressed[txID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppressed keys: %w", err)
	}

	return suppressed, nil
}

// ListByKey returns the audit trail for a dedup key, newest first.
func (r *Repo) ListByKey(ctx context.Context, key domain.Key, limit int) ([]domain.AuditEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listByKeySQL,
		string(key.SourceFeed), key.TransactionID, string(key.EventType), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries by key: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list audit entries by key: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	if entries == nil {
		entries = []domain.AuditEntry{}
	}

	return entries, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

// scanEntry scans a single audit log row.
func scanEntry(rows pgx.Rows) (domain.AuditEntry, error) {
	var (
		e          domain.AuditEntry
		sourceFeed string
		eventType  string
		action     string
		snapshot   []byte
	)

	err := rows.Scan(&e.ID, &sourceFeed, &e.Key.TransactionID, &eventType, &action, &snapshot, &e.CreatedAt)
	if err != nil {
		return domain.AuditEntry{}, err
	}

	e.Key.SourceFeed = domain.SourceFeed(sourceFeed)
	e.Key.EventType = domain.EventType(eventType)
	e.Action = domain.AuditAction(action)

	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &e.StateSnapshot); err != nil {
			return domain.AuditEntry{}, fmt.Errorf("audit_entry %s unmarshal snapshot: %w", e.ID, err)
		}
	}

	return e, nil
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
