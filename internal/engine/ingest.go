package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsboard/backend/internal/domain"
)

// OnTransactionCreated processes a live feed event. It creates a pending
// notification unless one already exists for the dedup key; the losing side
// of a delivery race is a silent no-op, so redelivered events are safe.
// Returns the current state and whether this call created it.
func (s *Service) OnTransactionCreated(ctx context.Context, feed domain.SourceFeed, tx domain.Transaction) (domain.NotificationState, bool, error) {
	key := domain.NewKey(feed, tx.ID)
	if err := key.Validate(); err != nil {
		return domain.NotificationState{}, false, err
	}

	// A replayed event may arrive after the resolved state row has been
	// purged. The audit log outlives the row, so check it before creating:
	// a key ever handled or dismissed stays dead.
	suppressed, err := s.audit.SuppressedKeys(ctx, feed, []string{tx.ID})
	if err != nil {
		return domain.NotificationState{}, false, fmt.Errorf("load suppression set: %w", err)
	}
	if _, ok := suppressed[tx.ID]; ok {
		s.log.DebugContext(ctx, "live event for resolved key ignored",
			slog.String("key", key.String()),
		)
		return domain.NotificationState{}, false, nil
	}

	draft := domain.NewNotification(feed, tx, s.cfg.TTL)

	state, created, err := s.notifications.UpsertIfAbsent(ctx, draft)
	if err != nil {
		return domain.NotificationState{}, false, fmt.Errorf("upsert notification: %w", err)
	}

	if !created {
		s.log.DebugContext(ctx, "notification already exists, live event ignored",
			slog.String("key", state.Key.String()),
		)
		return state, false, nil
	}

	if err := s.appendAudit(ctx, domain.AuditActionCreated, state); err != nil {
		return state, true, err
	}

	s.log.InfoContext(ctx, "notification created from live event",
		slog.String("key", state.Key.String()),
		slog.Time("expires_at", state.ExpiresAt),
	)

	return state, true, nil
}
