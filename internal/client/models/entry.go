// Package models defines client-side data models used by the moodlog CLI.
package models

import "encoding/json"

// SyncStatus describes where an entry stands in its reconciliation with the
// remote store.
type SyncStatus string

const (
	// StatusPending means the entry is durably recorded locally and has
	// never been acknowledged by the remote store.
	StatusPending SyncStatus = "pending"

	// StatusSyncing means a drain cycle has claimed the entry and a
	// submission may be in flight.
	StatusSyncing SyncStatus = "syncing"

	// StatusSynced means the remote store acknowledged the entry and
	// assigned it a server identity. Terminal.
	StatusSynced SyncStatus = "synced"

	// StatusError means the last submission failed. Non-terminal errors
	// become eligible again once their backoff window elapses; terminal
	// ones wait for a manual retry.
	StatusError SyncStatus = "error"
)

// Entry is the unit of synchronization: a journal record persisted locally
// at creation time and drained to the remote store as connectivity allows.
//
// The domain content lives in Payload and is opaque to the sync machinery:
// it is transported, never interpreted or rewritten. Everything outside
// Payload except the sync-bookkeeping fields is immutable after creation.
type Entry struct {
	// LocalID is the client-generated identity, assigned once at creation.
	// It doubles as the idempotency key for remote submission.
	LocalID string

	// OwnerID identifies the entry's owner; set at creation, immutable.
	OwnerID string

	// Payload is the recorded emotional state as JSON.
	Payload json.RawMessage

	// CreatedAtClient is the client timestamp in milliseconds since epoch.
	CreatedAtClient int64

	// ServerID is the remote-assigned identity; empty until synced.
	ServerID string

	// CreatedAtServer is the remote-assigned timestamp in milliseconds
	// since epoch; zero until synced.
	CreatedAtServer int64

	SyncStatus SyncStatus

	// LastSyncAttemptAt is the start of the most recent claim, in
	// milliseconds since epoch; zero if never attempted.
	LastSyncAttemptAt int64

	// NextAttemptAt is the end of the current backoff window, in
	// milliseconds since epoch; only meaningful while in StatusError.
	NextAttemptAt int64

	// SyncError is the failure reason from the last attempt.
	SyncError string

	RetryCount int

	// Terminal marks an error entry that automatic drains must skip.
	// Set for permanent rejections and after the retry budget runs out.
	Terminal bool
}

// Synced reports whether the entry has a confirmed remote identity.
func (e *Entry) Synced() bool {
	return e.SyncStatus == StatusSynced
}
