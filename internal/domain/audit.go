package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one append-only record of a lifecycle transition. Entries
// are never updated or deleted: once a key has recorded HANDLED or
// DISMISSED here, reconciliation must never recreate a notification for it,
// even after the state row itself has been purged.
type AuditEntry struct {
	ID     uuid.UUID   `json:"id"`
	Key    Key         `json:"key"`
	Action AuditAction `json:"action"`

	// StateSnapshot is the notification state after the transition,
	// sufficient to reconstruct the key on lookup.
	StateSnapshot NotificationState `json:"state_snapshot"`

	CreatedAt time.Time `json:"created_at"`
}

// NewAuditEntry builds an audit entry for a transition on the given state.
func NewAuditEntry(action AuditAction, state NotificationState, at time.Time) AuditEntry {
	return AuditEntry{
		ID:            uuid.New(),
		Key:           state.Key,
		Action:        action,
		StateSnapshot: state,
		CreatedAt:     at.UTC(),
	}
}
