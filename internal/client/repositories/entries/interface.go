package entries

import (
	"context"

	"github.com/moodlog-app/moodlog/internal/client/models"
)

// Repository is the Local Store: durable, crash-safe persistence of entries
// and their sync bookkeeping. Implementations are typically backed by a
// local SQLite database.
//
// Status transitions (MarkSyncing, MarkSynced, MarkError, ResetForRetry)
// must be atomic compare-and-swap operations: the expected prior status is
// verified in the same statement that writes the new one, so two concurrent
// drain triggers can never both claim the same entry.
type Repository interface {
	// Insert stores a brand-new entry. It fails with common.ErrDuplicateKey
	// if the local id already exists and wraps common.ErrStorageUnavailable
	// for persistence faults; callers must not assume the write happened
	// unless Insert returned nil.
	Insert(ctx context.Context, entry *models.Entry) error

	// GetRecentByOwner returns the owner's entries ordered by client
	// creation time descending, regardless of sync status. Side-effect-free
	// and never touches the network.
	GetRecentByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Entry, error)

	// GetByLocalID returns a single entry or common.ErrNotFound.
	GetByLocalID(ctx context.Context, localID string) (*models.Entry, error)

	// GetPendingOrRetryable returns entries eligible for a drain cycle at
	// the given instant (milliseconds since epoch): pending entries, plus
	// non-terminal error entries whose backoff window has elapsed. Ordered
	// by client creation time ascending so submission preserves
	// chronological order. Syncing and synced entries are excluded.
	GetPendingOrRetryable(ctx context.Context, nowMillis int64) ([]*models.Entry, error)

	// MarkSyncing claims an entry for submission: pending or retryable
	// error → syncing. Returns common.ErrNotPending when the entry is not
	// claimable (already claimed, already synced, or terminal).
	MarkSyncing(ctx context.Context, localID string, attemptAtMillis int64) error

	// MarkSynced records a successful submission: syncing → synced, with
	// the remote identity and timestamp.
	MarkSynced(ctx context.Context, localID, serverID string, createdAtServerMillis int64) error

	// MarkError records a failed submission: syncing → error. Increments
	// the retry count, stores the failure reason and next eligibility
	// instant, and optionally flags the entry terminal.
	MarkError(ctx context.Context, localID, message string, terminal bool, nextAttemptAtMillis int64) error

	// ResetStale folds syncing entries whose claim predates the cutoff
	// back to pending. An entry left in syncing across a process restart
	// is indistinguishable from one claimed by a crashed drain; after the
	// grace period it becomes re-claimable. Returns the number of entries
	// reset.
	ResetStale(ctx context.Context, olderThanMillis int64) (int64, error)

	// ResetForRetry is the manual-retry affordance: error → pending, with
	// the terminal flag and retry budget cleared. Returns
	// common.ErrNotFound when the entry does not exist or is not in error.
	ResetForRetry(ctx context.Context, localID string) error
}
