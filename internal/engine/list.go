package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsboard/backend/internal/domain"
	"github.com/opsboard/backend/pkg/ctxutil"
)

const defaultAuditTrailLimit = 50

// ListPending returns unresolved notifications for the dashboard, newest
// first. When the caller is an identified actor, their dashboard session is
// touched as a side effect; a session write failure never fails the read.
func (s *Service) ListPending(ctx context.Context, filter domain.PendingFilter) ([]domain.NotificationState, error) {
	if filter.Feed != nil && !filter.Feed.IsValid() {
		return nil, domain.NewValidationError("source_feed", "must be PURCHASE or SALE")
	}
	if filter.Limit <= 0 || filter.Limit > s.cfg.PendingListLimit {
		filter.Limit = s.cfg.PendingListLimit
	}

	states, err := s.notifications.ListPending(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	if actor, ok := ctxutil.ActorFromCtx(ctx); ok {
		if err := s.sessions.Touch(ctx, actor, s.now()); err != nil {
			s.log.WarnContext(ctx, "session touch failed",
				slog.String("actor", actor),
				slog.Any("error", err),
			)
		}
	}

	return states, nil
}

// Get returns the notification for a dedup key.
func (s *Service) Get(ctx context.Context, key domain.Key) (domain.NotificationState, error) {
	if err := key.Validate(); err != nil {
		return domain.NotificationState{}, err
	}
	return s.notifications.Get(ctx, key)
}

// AuditTrail returns the lifecycle history for a dedup key, newest first.
func (s *Service) AuditTrail(ctx context.Context, key domain.Key, limit int) ([]domain.AuditEntry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultAuditTrailLimit {
		limit = defaultAuditTrailLimit
	}
	return s.audit.ListByKey(ctx, key, limit)
}

// CountByStatus returns notification counts per lifecycle bucket. The
// housekeeping health summary and the health endpoint read this.
func (s *Service) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	return s.notifications.CountByStatus(ctx)
}
