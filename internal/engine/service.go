// Package engine implements the notification lifecycle: creating
// notifications from feed events, terminal transitions, bounded-window
// reconciliation, and housekeeping sweeps. All races are settled in the
// database; the engine holds no in-process locks.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/backend/internal/config"
	"github.com/opsboard/backend/internal/domain"
)

// batchSize bounds every housekeeping scan so a sweep over a large backlog
// cannot hold memory proportional to the table.
const batchSize = 500

const (
	auditRetryAttempts = 3
	auditRetryDelay    = 100 * time.Millisecond
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type notificationRepo interface {
	UpsertIfAbsent(ctx context.Context, n domain.NotificationState) (domain.NotificationState, bool, error)
	Get(ctx context.Context, key domain.Key) (domain.NotificationState, error)
	ListPending(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error)
	ListDueForExpiry(ctx context.Context, now time.Time, limit int) ([]domain.NotificationState, error)
	ListResolvedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.NotificationState, error)
	MarkResolved(ctx context.Context, key domain.Key, p domain.ResolveParams) (domain.NotificationState, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (domain.StatusCounts, error)
}

type auditRepo interface {
	Log(ctx context.Context, entry domain.AuditEntry) error
	SuppressedKeys(ctx context.Context, feed domain.SourceFeed, transactionIDs []string) (map[string]struct{}, error)
	ListByKey(ctx context.Context, key domain.Key, limit int) ([]domain.AuditEntry, error)
}

type feedRepo interface {
	ListCreatedSince(ctx context.Context, feed domain.SourceFeed, cutoff time.Time, limit int) ([]domain.Transaction, error)
}

type sessionRepo interface {
	Touch(ctx context.Context, actor string, at time.Time) error
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the notification engine business logic.
type Service struct {
	notifications notificationRepo
	audit         auditRepo
	feeds         feedRepo
	sessions      sessionRepo
	tx            txManager
	log           *slog.Logger
	cfg           config.NotificationsConfig
	now           func() time.Time
}

// NewService creates a new notification engine. A nil now falls back to
// time.Now; tests inject a fixed clock.
func NewService(
	log *slog.Logger,
	notifications notificationRepo,
	audit auditRepo,
	feeds feedRepo,
	sessions sessionRepo,
	tx txManager,
	cfg config.NotificationsConfig,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		notifications: notifications,
		audit:         audit,
		feeds:         feeds,
		sessions:      sessions,
		tx:            tx,
		log:           log.With("service", "engine"),
		cfg:           cfg,
		now:           now,
	}
}

// appendAudit writes one audit entry, retrying transient failures. The state
// write has already happened when this runs, so a lost entry would silently
// weaken the suppression set; retrying is cheaper than reconciling that.
func (s *Service) appendAudit(ctx context.Context, action domain.AuditAction, state domain.NotificationState) error {
	entry := domain.NewAuditEntry(action, state, s.now())

	var err error
	for attempt := 1; attempt <= auditRetryAttempts; attempt++ {
		if err = s.audit.Log(ctx, entry); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < auditRetryAttempts {
			s.log.WarnContext(ctx, "audit append failed, retrying",
				slog.String("key", state.Key.String()),
				slog.String("action", string(action)),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			time.Sleep(auditRetryDelay)
		}
	}

	return fmt.Errorf("append audit %s for %s: %w", action, state.Key, err)
}
