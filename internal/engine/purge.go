package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/opsboard/backend/internal/domain"
)

// PurgeResolved deletes terminal notifications that were resolved before
// the retention cutoff. Each batch records a PURGED audit entry and deletes
// the rows in one transaction, so the audit trail never loses track of a
// row that is gone. The suppression set survives the purge by design: it
// reads the append-only audit log, not the state table.
func (s *Service) PurgeResolved(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.HandledRetention)
	var total int64

	for {
		batch, err := s.notifications.ListResolvedBefore(ctx, cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("list purge candidates: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			ids := make([]uuid.UUID, len(batch))
			for i, n := range batch {
				ids[i] = n.ID
				if err := s.audit.Log(txCtx, domain.NewAuditEntry(domain.AuditActionPurged, n, s.now())); err != nil {
					return fmt.Errorf("audit purge %s: %w", n.Key, err)
				}
			}

			deleted, err := s.notifications.DeleteByIDs(txCtx, ids)
			if err != nil {
				return fmt.Errorf("delete purged rows: %w", err)
			}
			total += deleted
			return nil
		})
		if err != nil {
			return total, err
		}

		if len(batch) < batchSize {
			break
		}
	}

	if total > 0 {
		s.log.InfoContext(ctx, "purged resolved notifications",
			slog.Int64("count", total),
			slog.Time("cutoff", cutoff),
		)
	}

	return total, nil
}

// CleanupSessions removes dashboard sessions idle past the retention window.
func (s *Service) CleanupSessions(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.SessionRetention)

	deleted, err := s.sessions.DeleteSeenBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}

	if deleted > 0 {
		s.log.InfoContext(ctx, "cleaned up stale dashboard sessions",
			slog.Int64("count", deleted),
		)
	}

	return deleted, nil
}
