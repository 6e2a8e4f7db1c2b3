package domain

import (
	"encoding/json"
	"time"
)

// Transaction is the slice of a feed record the engine cares about.
// Feed records are append-mostly and immutable once created; the engine
// never writes them.
type Transaction struct {
	// ID is the stable identifier assigned by the originating feed.
	ID string `json:"id"`

	// CreatedAt is the feed-side creation timestamp. Notification expiry
	// math is anchored to this value, never to the moment the engine saw
	// the record.
	CreatedAt time.Time `json:"created_at"`

	// Payload is the business record as stored by the feed.
	Payload json.RawMessage `json:"payload"`
}
