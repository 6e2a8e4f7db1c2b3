package domain

import "time"

// ResolveParams describes a terminal transition. Handled marks is_handled,
// otherwise is_dismissed is marked. Actor and At land in handled_by/handled_at.
type ResolveParams struct {
	Handled bool
	Actor   string
	At      time.Time
}

// PendingFilter narrows pending-notification listings. A nil Feed returns
// all feeds.
type PendingFilter struct {
	Feed  *SourceFeed
	Limit int
}

// StatusCounts holds notification row counts per lifecycle bucket.
type StatusCounts struct {
	Pending   int `json:"pending"`
	Handled   int `json:"handled"`
	Dismissed int `json:"dismissed"`
}

// ReconcileStats summarizes one reconciliation pass across all feeds.
type ReconcileStats struct {
	Scanned         int `json:"scanned"`
	AlreadyNotified int `json:"already_notified"`
	Suppressed      int `json:"suppressed"`
	Stale           int `json:"stale"`
	Created         int `json:"created"`
}
