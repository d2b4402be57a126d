// Package entries provides the client-side persistence layer for journal
// entries and their synchronization bookkeeping.
//
// The package defines a Repository interface (the Local Store) and a
// SQLite-backed implementation over a dbx.DBTX. Every status transition is a
// single compare-and-swap UPDATE whose WHERE clause verifies the expected
// prior status; the caller learns it lost a race via common.ErrNotPending
// instead of observing a double claim.
//
// Entries are append-mostly: after Insert, only the sync-bookkeeping columns
// ever change, and nothing here deletes a row. Retention is a collaborator
// concern expressed through bounded GetRecentByOwner reads.
package entries
