package testhelper

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsboard/backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// feedTable maps a feed to its table name.
func feedTable(t *testing.T, feed domain.SourceFeed) string {
	t.Helper()
	switch feed {
	case domain.SourceFeedPurchase:
		return "purchases"
	case domain.SourceFeedSale:
		return "sales"
	default:
		t.Fatalf("testhelper: unknown feed %q", feed)
		return ""
	}
}

// SeedTransaction inserts a feed record with the given creation time and
// returns the filled domain.Transaction. The transaction ID is unique per call.
func SeedTransaction(t *testing.T, pool *pgxpool.Pool, feed domain.SourceFeed, createdAt time.Time) domain.Transaction {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	tx := domain.Transaction{
		ID:        "tx-" + suffix,
		CreatedAt: createdAt.UTC().Truncate(time.Microsecond),
		Payload:   json.RawMessage(`{"amount": 1250, "currency": "USD", "ref": "` + suffix + `"}`),
	}

	_, err := pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, payload, created_at) VALUES ($1, $2, $3)`, feedTable(t, feed)),
		tx.ID, tx.Payload, tx.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTransaction insert %s: %v", feed, err)
	}

	return tx
}

// SeedNotification inserts a notification state row as given.
// Use domain.NewNotification to build a pending draft first.
func SeedNotification(t *testing.T, pool *pgxpool.Pool, n domain.NotificationState) domain.NotificationState {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO notification_states
		 (id, source_feed, transaction_id, event_type, payload_snapshot,
		  is_handled, is_dismissed, priority, requires_action,
		  created_at, expires_at, handled_at, handled_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		n.ID, string(n.Key.SourceFeed), n.Key.TransactionID, string(n.Key.EventType), n.PayloadSnapshot,
		n.IsHandled, n.IsDismissed, string(n.Priority), n.RequiresAction,
		n.CreatedAt, n.ExpiresAt, n.HandledAt, n.HandledBy,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedNotification insert: %v", err)
	}

	return n
}

// SeedPendingNotification seeds a feed record and its pending notification
// together, the state every live-path test starts from.
func SeedPendingNotification(t *testing.T, pool *pgxpool.Pool, feed domain.SourceFeed, createdAt time.Time, ttl time.Duration) domain.NotificationState {
	t.Helper()

	tx := SeedTransaction(t, pool, feed, createdAt)
	return SeedNotification(t, pool, domain.NewNotification(feed, tx, ttl))
}

// SeedAuditEntry appends an audit log row as given.
func SeedAuditEntry(t *testing.T, pool *pgxpool.Pool, e domain.AuditEntry) domain.AuditEntry {
	t.Helper()
	ctx := context.Background()

	snapshot, err := json.Marshal(e.StateSnapshot)
	if err != nil {
		t.Fatalf("testhelper: SeedAuditEntry marshal snapshot: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO notification_audit_log
		 (id, source_feed, transaction_id, event_type, action, state_snapshot, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, string(e.Key.SourceFeed), e.Key.TransactionID, string(e.Key.EventType),
		string(e.Action), snapshot, e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAuditEntry insert: %v", err)
	}

	return e
}

// SeedSession inserts a dashboard session row with the given last-seen time
// and returns its ID.
func SeedSession(t *testing.T, pool *pgxpool.Pool, actor string, lastSeenAt time.Time) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO dashboard_sessions (id, actor, last_seen_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		id, actor, lastSeenAt.UTC(), lastSeenAt.UTC(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSession insert: %v", err)
	}

	return id
}
