// Package models defines server-side data models persisted in the database.
package models

import (
	"encoding/json"
	"time"
)

// Entry is one journal record as the server stores it. (OwnerID, LocalID)
// is unique: a client resubmitting the same local id gets back the identity
// assigned on first receipt instead of a second row.
type Entry struct {
	// ID is the server-assigned identity, generated on first receipt.
	ID string
	// OwnerID is the journal owner the entry belongs to.
	OwnerID string
	// LocalID is the client-generated identity, the idempotency key.
	LocalID string
	// Payload is the recorded emotional state, stored verbatim.
	Payload json.RawMessage
	// CreatedAtClient is the client capture timestamp, milliseconds since epoch.
	CreatedAtClient int64
	// CreatedAt is the server receipt timestamp.
	CreatedAt time.Time
}
