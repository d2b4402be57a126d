package entries

import (
	"context"
	"time"

	"github.com/moodlog-app/moodlog/internal/server/models"
)

// Repository is the server-side entry store.
type Repository interface {
	// Upsert stores the entry if (owner_id, local_id) is new and returns
	// the identity assigned then; on a resubmission it returns the
	// identity and timestamp already recorded, leaving the row untouched.
	Upsert(ctx context.Context, entry *models.Entry) (*models.Entry, error)

	// SelectRecentByOwner returns the owner's entries ordered by client
	// capture time descending.
	SelectRecentByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Entry, error)

	// SelectCreatedSince returns entries received after the given instant,
	// for the cold-storage exporter.
	SelectCreatedSince(ctx context.Context, since time.Time) ([]*models.Entry, error)
}
