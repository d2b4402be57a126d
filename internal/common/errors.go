// Package common defines shared constants and sentinel errors used across
// client and server layers of moodlog. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotPending is returned when a sync-status transition finds the
	// entry in an unexpected state, e.g. a second drain trying to claim
	// an entry that is already syncing.
	ErrNotPending = errors.New("entry is not claimable")

	// ErrStorageUnavailable signals a local persistence fault (disk,
	// quota, corrupt database). Entry creation must fail loudly on it.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// Remote submission outcomes, as classified by the remote client.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidEntry = errors.New("entry rejected as invalid")

	// Service-level errors.
	ErrInternal = errors.New("internal error")
)
