// Package attachments tracks staged media files awaiting upload to object
// storage. An attachment becomes uploadable only after its owning entry has
// synced; its lifecycle never influences entry sync state.
package attachments

import (
	"context"

	"github.com/moodlog-app/moodlog/internal/client/models"
)

// Repository describes local bookkeeping for entry attachments.
type Repository interface {
	// Insert stores bookkeeping for a freshly staged attachment.
	Insert(ctx context.Context, a *models.Attachment) error

	// GetPendingForEntry returns the entry's attachment if one is still
	// awaiting upload, or common.ErrNotFound.
	GetPendingForEntry(ctx context.Context, entryLocalID string) (*models.Attachment, error)

	// MarkUploaded records a completed upload.
	MarkUploaded(ctx context.Context, entryLocalID string) error
}
