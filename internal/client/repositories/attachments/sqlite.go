package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moodlog-app/moodlog/internal/client/models"
	"github.com/moodlog-app/moodlog/internal/common"
	"github.com/moodlog-app/moodlog/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Attachment) error {
	query := `INSERT INTO attachments (entry_local_id, staged_path, file_key, nonce, upload_status)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.EntryLocalID, a.StagedPath, a.Key, a.Nonce, models.UploadStatusPending)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *SQLiteRepository) GetPendingForEntry(ctx context.Context, entryLocalID string) (*models.Attachment, error) {
	query := `SELECT entry_local_id, staged_path, file_key, nonce, upload_status
		FROM attachments WHERE entry_local_id = ? AND upload_status = 'pending'`
	row := r.db.QueryRowContext(ctx, query, entryLocalID)

	a := &models.Attachment{}
	err := row.Scan(&a.EntryLocalID, &a.StagedPath, &a.Key, &a.Nonce, &a.UploadStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, entryLocalID string) error {
	query := `UPDATE attachments SET upload_status = 'uploaded'
		WHERE entry_local_id = ? AND upload_status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, entryLocalID)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}
