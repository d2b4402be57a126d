package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/moodlog-app/moodlog/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MigratesAndServes(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "moodlog.db")

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	e := &models.Entry{
		LocalID:         "e1",
		OwnerID:         "u1",
		Payload:         []byte(`{"mood":"ok","intensity":5}`),
		CreatedAtClient: 100,
	}
	require.NoError(t, s.Entries.Insert(ctx, e))

	got, err := s.Entries.GetByLocalID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.SyncStatus)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "moodlog.db")

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.Entries.Insert(ctx, &models.Entry{
		LocalID: "e1", OwnerID: "u1", Payload: []byte(`{}`), CreatedAtClient: 1,
	}))
	require.NoError(t, s.Close())

	// second open must not re-run migrations destructively
	s2, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	got, err := s2.Entries.GetByLocalID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)
}
