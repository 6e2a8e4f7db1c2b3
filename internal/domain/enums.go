package domain

// SourceFeed identifies which transaction feed a record originates from.
type SourceFeed string

const (
	SourceFeedPurchase SourceFeed = "PURCHASE"
	SourceFeedSale     SourceFeed = "SALE"
)

func (f SourceFeed) String() string { return string(f) }

func (f SourceFeed) IsValid() bool {
	switch f {
	case SourceFeedPurchase, SourceFeedSale:
		return true
	}
	return false
}

// AllSourceFeeds lists every feed the engine reconciles, in scan order.
func AllSourceFeeds() []SourceFeed {
	return []SourceFeed{SourceFeedPurchase, SourceFeedSale}
}

// EventType identifies the kind of feed event a notification tracks.
// Only INSERT exists today; the slot is reserved for future event kinds
// so the dedup key never changes shape.
type EventType string

const (
	EventTypeInsert EventType = "INSERT"
)

func (t EventType) String() string { return string(t) }

func (t EventType) IsValid() bool {
	return t == EventTypeInsert
}

// AuditAction is the kind of lifecycle transition recorded in the audit log.
type AuditAction string

const (
	AuditActionCreated   AuditAction = "CREATED"
	AuditActionHandled   AuditAction = "HANDLED"
	AuditActionDismissed AuditAction = "DISMISSED"
	AuditActionExpired   AuditAction = "EXPIRED"
	AuditActionPurged    AuditAction = "PURGED"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreated, AuditActionHandled, AuditActionDismissed,
		AuditActionExpired, AuditActionPurged:
		return true
	}
	return false
}

// Priority is a descriptive urgency hint for rendering; it carries no
// lifecycle behavior.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityHigh:
		return true
	}
	return false
}
