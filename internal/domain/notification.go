package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SystemAutoExpireActor is recorded as handled_by when the expiry sweep
// auto-dismisses a notification past its deadline.
const SystemAutoExpireActor = "system-auto-expire"

// Key is the dedup key uniquely identifying a notification's identity:
// one notification may ever exist per (feed, transaction, event type).
type Key struct {
	SourceFeed    SourceFeed `json:"source_feed"`
	TransactionID string     `json:"transaction_id"`
	EventType     EventType  `json:"event_type"`
}

// NewKey builds the dedup key for an INSERT event on the given feed record.
func NewKey(feed SourceFeed, transactionID string) Key {
	return Key{
		SourceFeed:    feed,
		TransactionID: transactionID,
		EventType:     EventTypeInsert,
	}
}

// String renders the key in its canonical feed:tx:event form used in logs
// and audit lookups.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.SourceFeed, k.TransactionID, k.EventType)
}

// Validate checks all key fields and collects all errors.
func (k Key) Validate() error {
	var errs []FieldError
	if !k.SourceFeed.IsValid() {
		errs = append(errs, FieldError{Field: "source_feed", Message: "must be PURCHASE or SALE"})
	}
	if k.TransactionID == "" {
		errs = append(errs, FieldError{Field: "transaction_id", Message: "required"})
	}
	if !k.EventType.IsValid() {
		errs = append(errs, FieldError{Field: "event_type", Message: "unknown event type"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// NotificationState is one row of the pending-action queue, unique per Key.
type NotificationState struct {
	ID  uuid.UUID `json:"id"`
	Key Key       `json:"key"`

	// PayloadSnapshot is the business record copied at creation time for
	// rendering. It is never re-synced from the feed.
	PayloadSnapshot json.RawMessage `json:"payload_snapshot"`

	IsHandled   bool `json:"is_handled"`
	IsDismissed bool `json:"is_dismissed"`

	Priority       Priority `json:"priority"`
	RequiresAction bool     `json:"requires_action"`

	// CreatedAt is the originating transaction's creation time, not the
	// wall-clock time the row was inserted. Expiry math depends on this.
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// HandledAt/HandledBy are set on the first terminal transition and
	// never cleared.
	HandledAt *time.Time `json:"handled_at,omitempty"`
	HandledBy *string    `json:"handled_by,omitempty"`
}

// IsTerminal reports whether the notification has reached a terminal state:
// no further lifecycle transitions are permitted.
func (n NotificationState) IsTerminal() bool {
	return n.IsHandled || n.IsDismissed
}

// NewNotification builds a pending NotificationState draft for a feed
// record. CreatedAt is anchored to the transaction's own creation time so
// that a record recovered by reconciliation expires at the same instant it
// would have, had the live event been delivered.
func NewNotification(feed SourceFeed, tx Transaction, ttl time.Duration) NotificationState {
	createdAt := tx.CreatedAt.UTC()
	return NotificationState{
		ID:              uuid.New(),
		Key:             NewKey(feed, tx.ID),
		PayloadSnapshot: tx.Payload,
		Priority:        PriorityNormal,
		RequiresAction:  true,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(ttl),
	}
}
