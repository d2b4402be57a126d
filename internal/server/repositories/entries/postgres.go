// Package entries persists journal entries on the server side.
package entries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moodlog-app/moodlog/internal/dbx"
	"github.com/moodlog-app/moodlog/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts the entry or, when (owner_id, local_id) already exists,
// returns the previously assigned identity. The no-op DO UPDATE makes the
// conflicting row visible to RETURNING, so both paths come back through the
// same statement.
func (r *PostgresRepository) Upsert(ctx context.Context, entry *models.Entry) (*models.Entry, error) {

	query :=
		`INSERT INTO entries (owner_id, local_id, payload, created_at_client)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (owner_id, local_id) DO UPDATE SET local_id = EXCLUDED.local_id
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		entry.OwnerID, entry.LocalID, []byte(entry.Payload), entry.CreatedAtClient).
		Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) SelectRecentByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Entry, error) {
	query :=
		`SELECT id, owner_id, local_id, payload, created_at_client, created_at FROM entries
		 WHERE owner_id = $1
		 ORDER BY created_at_client DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *PostgresRepository) SelectCreatedSince(ctx context.Context, since time.Time) ([]*models.Entry, error) {
	query :=
		`SELECT id, owner_id, local_id, payload, created_at_client, created_at FROM entries
		 WHERE created_at >= $1
		 ORDER BY created_at ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*models.Entry, error) {
	var result []*models.Entry

	for rows.Next() {
		e := &models.Entry{}
		var payload []byte
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.LocalID, &payload, &e.CreatedAtClient, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Payload = payload
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
