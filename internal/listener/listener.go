// Package listener consumes live feed change events from redis pub/sub and
// feeds them into the notification engine. Delivery is at-least-once and
// lossy: duplicates are absorbed by idempotent ingestion, and dropped events
// are recovered by the next reconciliation pass while the transaction is
// still inside the recovery window.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsboard/backend/internal/domain"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// ingester defines what the listener needs from the notification engine.
type ingester interface {
	OnTransactionCreated(ctx context.Context, feed domain.SourceFeed, tx domain.Transaction) (domain.NotificationState, bool, error)
}

// Envelope is the wire format feed writers publish on change channels.
type Envelope struct {
	Feed   domain.SourceFeed  `json:"feed"`
	Record domain.Transaction `json:"record"`
}

// Listener subscribes to the feed change channels and ingests each event.
type Listener struct {
	client *redis.Client
	engine ingester
	prefix string
	log    *slog.Logger
}

// New creates a Listener. prefix is prepended to the per-feed channel names.
func New(log *slog.Logger, client *redis.Client, prefix string, engine ingester) *Listener {
	return &Listener{
		client: client,
		engine: engine,
		prefix: prefix,
		log:    log.With("component", "listener"),
	}
}

func (l *Listener) channels() []string {
	return []string{l.prefix + "purchases", l.prefix + "sales"}
}

// Run consumes events until ctx is cancelled. A lost subscription is
// re-established with capped exponential backoff.
func (l *Listener) Run(ctx context.Context) error {
	backoff := initialBackoff

	for {
		subscribed, err := l.consume(ctx)
		if ctx.Err() != nil {
			l.log.Info("feed listener stopped")
			return nil
		}
		if subscribed {
			backoff = initialBackoff
		}

		l.log.ErrorContext(ctx, "feed subscription lost, reconnecting",
			slog.Any("error", err),
			slog.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			l.log.Info("feed listener stopped")
			return nil
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// consume holds one subscription open and processes its messages. The
// returned bool reports whether the subscription was ever confirmed, so the
// caller knows to reset its backoff.
func (l *Listener) consume(ctx context.Context) (bool, error) {
	sub := l.client.Subscribe(ctx, l.channels()...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	l.log.InfoContext(ctx, "listening for feed events",
		slog.Any("channels", l.channels()),
	)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, errors.New("subscription channel closed")
			}
			l.handleMessage(ctx, msg)
		}
	}
}

// handleMessage ingests one published event. Bad payloads and ingestion
// failures are logged and dropped; reconciliation is the safety net.
func (l *Listener) handleMessage(ctx context.Context, msg *redis.Message) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		l.log.WarnContext(ctx, "dropping undecodable feed event",
			slog.String("channel", msg.Channel),
			slog.Any("error", err),
		)
		return
	}

	if _, _, err := l.engine.OnTransactionCreated(ctx, env.Feed, env.Record); err != nil {
		l.log.ErrorContext(ctx, "feed event ingestion failed",
			slog.String("channel", msg.Channel),
			slog.String("feed", env.Feed.String()),
			slog.String("transaction_id", env.Record.ID),
			slog.Any("error", err),
		)
	}
}
