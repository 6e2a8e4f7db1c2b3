// Package feed implements read-only access to the business transaction
// feeds (purchases and sales). The notification engine only ever reads
// these tables; feed rows are owned by the ingestion pipeline.
package feed

import (
	"context"
	"fmt"

	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/opsboard/backend/internal/adapter/postgres"
	"github.com/opsboard/backend/internal/domain"
)

// Repo provides feed record reads backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new feed repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// tableFor maps a feed to its table. Feeds are a closed set enumerated by
// domain.AllSourceFeeds, so an unknown value is a programming error.
func tableFor(feed domain.SourceFeed) (string, error) {
	switch feed {
	case domain.SourceFeedPurchase:
		return "purchases", nil
	case domain.SourceFeedSale:
		return "sales", nil
	default:
		return "", fmt.Errorf("unknown source feed %q", feed)
	}
}

// ListCreatedSince returns feed records created at or after the cutoff,
// oldest first. Reconciliation scans each feed through this.
func (r *Repo) ListCreatedSince(ctx context.Context, feed domain.SourceFeed, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	table, err := tableFor(feed)
	if err != nil {
		return nil, err
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	query := fmt.Sprintf(`
SELECT id, payload, created_at
FROM %s
WHERE created_at >= $1
ORDER BY created_at
LIMIT $2`, table)

	rows, err := q.Query(ctx, query, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list %s created since: %w", table, err)
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("list %s created since: %w", table, err)
	}

	return txs, nil
}

// scanTransactions scans multiple rows into a Transaction slice.
func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Payload, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}

	return txs, nil
}
