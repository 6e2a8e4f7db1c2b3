package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsboard/backend/internal/domain"
)

// Reconcile scans every feed for transactions created inside the recovery
// window and creates the notifications the live path missed. The pass is
// idempotent: existing notifications and transactions already resolved in
// the audit log are skipped, so running it twice changes nothing.
//
// A feed failure does not abort the other feeds; partial stats are returned
// alongside the joined error.
func (s *Service) Reconcile(ctx context.Context) (domain.ReconcileStats, error) {
	var stats domain.ReconcileStats
	var errs []error

	cutoff := s.now().Add(-s.cfg.RecoveryWindow)

	for _, feed := range domain.AllSourceFeeds() {
		if err := s.reconcileFeed(ctx, feed, cutoff, &stats); err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", feed, err))
		}
	}

	s.log.InfoContext(ctx, "reconciliation pass finished",
		slog.Time("cutoff", cutoff),
		slog.Int("scanned", stats.Scanned),
		slog.Int("created", stats.Created),
		slog.Int("already_notified", stats.AlreadyNotified),
		slog.Int("suppressed", stats.Suppressed),
		slog.Int("stale", stats.Stale),
	)

	return stats, errors.Join(errs...)
}

func (s *Service) reconcileFeed(ctx context.Context, feed domain.SourceFeed, cutoff time.Time, stats *domain.ReconcileStats) error {
	txs, err := s.feeds.ListCreatedSince(ctx, feed, cutoff, batchSize)
	if err != nil {
		return fmt.Errorf("scan feed: %w", err)
	}
	stats.Scanned += len(txs)

	if len(txs) == 0 {
		return nil
	}

	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}

	suppressed, err := s.audit.SuppressedKeys(ctx, feed, ids)
	if err != nil {
		return fmt.Errorf("load suppression set: %w", err)
	}

	for _, tx := range txs {
		if _, ok := suppressed[tx.ID]; ok {
			// Ever handled or dismissed: recreating it would resurrect a
			// notification someone already dealt with.
			stats.Suppressed++
			continue
		}

		// The scan query bounds on the cutoff computed at pass start; the
		// window keeps sliding while the pass runs, so re-check against the
		// current clock. A record that drifted out mid-pass is never
		// recreated.
		if tx.CreatedAt.Before(s.now().Add(-s.cfg.RecoveryWindow)) {
			stats.Stale++
			continue
		}

		draft := domain.NewNotification(feed, tx, s.cfg.TTL)

		state, created, err := s.notifications.UpsertIfAbsent(ctx, draft)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", draft.Key, err)
		}
		if !created {
			stats.AlreadyNotified++
			continue
		}

		if err := s.appendAudit(ctx, domain.AuditActionCreated, state); err != nil {
			return err
		}

		stats.Created++
		s.log.InfoContext(ctx, "orphaned transaction recovered",
			slog.String("key", state.Key.String()),
			slog.Time("transaction_created_at", tx.CreatedAt),
		)
	}

	return nil
}
