package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moodlog-app/moodlog/internal/client/models"
	"github.com/moodlog-app/moodlog/internal/common"
	"github.com/moodlog-app/moodlog/internal/dbx"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const entryColumns = `local_id, owner_id, payload, created_at_client, server_id, created_at_server,
	sync_status, last_sync_attempt_at, next_attempt_at, sync_error, retry_count, terminal`

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (local_id, owner_id, payload, created_at_client, sync_status)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.LocalID, e.OwnerID, []byte(e.Payload), e.CreatedAtClient, string(models.StatusPending))
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("entry %s: %w", e.LocalID, common.ErrDuplicateKey)
		}
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// isConstraintViolation reports whether err is a primary-key or unique
// constraint failure from the sqlite driver.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func (r *SQLiteRepository) GetRecentByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE owner_id = ?
		ORDER BY created_at_client DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, localID string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE local_id = ?`
	row := r.db.QueryRowContext(ctx, query, localID)

	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", localID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetPendingOrRetryable(ctx context.Context, nowMillis int64) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE sync_status = 'pending'
		   OR (sync_status = 'error' AND terminal = 0 AND next_attempt_at <= ?)
		ORDER BY created_at_client ASC`
	rows, err := r.db.QueryContext(ctx, query, nowMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to select eligible entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// MarkSyncing claims the entry with a single CAS update: the WHERE clause
// verifies the prior status, so a concurrent drain that lost the race sees
// zero rows affected.
func (r *SQLiteRepository) MarkSyncing(ctx context.Context, localID string, attemptAtMillis int64) error {
	query := `UPDATE entries SET sync_status = 'syncing', last_sync_attempt_at = ?
		WHERE local_id = ?
		  AND (sync_status = 'pending' OR (sync_status = 'error' AND terminal = 0))`
	return r.transition(ctx, query, common.ErrNotPending, attemptAtMillis, localID)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, localID, serverID string, createdAtServerMillis int64) error {
	query := `UPDATE entries SET sync_status = 'synced', server_id = ?, created_at_server = ?, sync_error = ''
		WHERE local_id = ? AND sync_status = 'syncing'`
	return r.transition(ctx, query, common.ErrNotPending, serverID, createdAtServerMillis, localID)
}

func (r *SQLiteRepository) MarkError(ctx context.Context, localID, message string, terminal bool, nextAttemptAtMillis int64) error {
	query := `UPDATE entries SET sync_status = 'error', retry_count = retry_count + 1,
			sync_error = ?, terminal = ?, next_attempt_at = ?
		WHERE local_id = ? AND sync_status = 'syncing'`
	return r.transition(ctx, query, common.ErrNotPending, message, terminal, nextAttemptAtMillis, localID)
}

func (r *SQLiteRepository) ResetStale(ctx context.Context, olderThanMillis int64) (int64, error) {
	query := `UPDATE entries SET sync_status = 'pending'
		WHERE sync_status = 'syncing' AND last_sync_attempt_at <= ?`
	res, err := r.db.ExecContext(ctx, query, olderThanMillis)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale entries: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) ResetForRetry(ctx context.Context, localID string) error {
	query := `UPDATE entries SET sync_status = 'pending', terminal = 0, retry_count = 0,
			next_attempt_at = NULL, sync_error = ''
		WHERE local_id = ? AND sync_status = 'error'`
	return r.transition(ctx, query, common.ErrNotFound, localID)
}

// transition runs a CAS status update and maps "no rows affected" to the
// given sentinel.
func (r *SQLiteRepository) transition(ctx context.Context, query string, miss error, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return miss
	}
	return nil
}

func scanEntry(scan func(dest ...any) error) (*models.Entry, error) {
	var (
		e           models.Entry
		payload     []byte
		status      string
		serverID    sql.NullString
		createdSrv  sql.NullInt64
		lastAttempt sql.NullInt64
		nextAttempt sql.NullInt64
		terminalInt int
	)
	err := scan(&e.LocalID, &e.OwnerID, &payload, &e.CreatedAtClient, &serverID, &createdSrv,
		&status, &lastAttempt, &nextAttempt, &e.SyncError, &e.RetryCount, &terminalInt)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	e.SyncStatus = models.SyncStatus(status)
	e.ServerID = serverID.String
	e.CreatedAtServer = createdSrv.Int64
	e.LastSyncAttemptAt = lastAttempt.Int64
	e.NextAttemptAt = nextAttempt.Int64
	e.Terminal = terminalInt != 0
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]*models.Entry, error) {
	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
