package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/opsboard/backend/internal/domain"
	"github.com/opsboard/backend/pkg/ctxutil"
)

// Handle marks a notification as acted upon by the actor in the context.
// Resolving an already-terminal notification is a no-op that returns the
// current state: the first transition wins and is never overwritten.
func (s *Service) Handle(ctx context.Context, key domain.Key) (domain.NotificationState, error) {
	return s.resolve(ctx, key, true, domain.AuditActionHandled)
}

// Dismiss marks a notification as not requiring action. Same terminal
// semantics as Handle.
func (s *Service) Dismiss(ctx context.Context, key domain.Key) (domain.NotificationState, error) {
	return s.resolve(ctx, key, false, domain.AuditActionDismissed)
}

func (s *Service) resolve(ctx context.Context, key domain.Key, handled bool, action domain.AuditAction) (domain.NotificationState, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.NotificationState{}, domain.NewValidationError("actor", "required")
	}
	if err := key.Validate(); err != nil {
		return domain.NotificationState{}, err
	}

	state, err := s.notifications.MarkResolved(ctx, key, domain.ResolveParams{
		Handled: handled,
		Actor:   actor,
		At:      s.now(),
	})
	if errors.Is(err, domain.ErrTerminalState) {
		s.log.DebugContext(ctx, "resolve on terminal notification ignored",
			slog.String("key", key.String()),
			slog.String("requested_action", string(action)),
		)
		return state, nil
	}
	if err != nil {
		return domain.NotificationState{}, fmt.Errorf("mark resolved: %w", err)
	}

	if err := s.appendAudit(ctx, action, state); err != nil {
		return state, err
	}

	s.log.InfoContext(ctx, "notification resolved",
		slog.String("key", key.String()),
		slog.String("action", string(action)),
		slog.String("actor", actor),
	)

	return state, nil
}

// ExpireDue dismisses every pending notification whose deadline has passed,
// acting as the system auto-expire actor. Returns how many were expired.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	expired := 0

	for {
		due, err := s.notifications.ListDueForExpiry(ctx, s.now(), batchSize)
		if err != nil {
			return expired, fmt.Errorf("list due for expiry: %w", err)
		}
		if len(due) == 0 {
			break
		}

		for _, n := range due {
			state, err := s.notifications.MarkResolved(ctx, n.Key, domain.ResolveParams{
				Handled: false,
				Actor:   domain.SystemAutoExpireActor,
				At:      s.now(),
			})
			if errors.Is(err, domain.ErrTerminalState) {
				// A dashboard user resolved it between the scan and this
				// write. Their transition stands.
				continue
			}
			if err != nil {
				return expired, fmt.Errorf("expire %s: %w", n.Key, err)
			}

			if err := s.appendAudit(ctx, domain.AuditActionExpired, state); err != nil {
				return expired, err
			}
			expired++
		}

		if len(due) < batchSize {
			break
		}
	}

	if expired > 0 {
		s.log.InfoContext(ctx, "expired overdue notifications", slog.Int("count", expired))
	}

	return expired, nil
}
