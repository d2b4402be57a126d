package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/moodlog-app/moodlog/internal/common"
	sc "github.com/moodlog-app/moodlog/internal/server/config"
	"github.com/moodlog-app/moodlog/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo stores entries in memory keyed by (owner, local id).
type fakeRepo struct {
	rows map[string]*models.Entry
	seq  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]*models.Entry{}}
}

func (r *fakeRepo) Upsert(_ context.Context, entry *models.Entry) (*models.Entry, error) {
	key := entry.OwnerID + "/" + entry.LocalID
	if existing, ok := r.rows[key]; ok {
		return existing, nil
	}
	r.seq++
	stored := &models.Entry{
		ID:              uuid.NewString(),
		OwnerID:         entry.OwnerID,
		LocalID:         entry.LocalID,
		Payload:         entry.Payload,
		CreatedAtClient: entry.CreatedAtClient,
		CreatedAt:       time.Now(),
	}
	r.rows[key] = stored
	return stored, nil
}

func (r *fakeRepo) SelectRecentByOwner(_ context.Context, ownerID string, limit int) ([]*models.Entry, error) {
	var out []*models.Entry
	for _, e := range r.rows {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) SelectCreatedSince(context.Context, time.Time) ([]*models.Entry, error) {
	return nil, nil
}

func newService() (*EntryService, *fakeRepo) {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	repo := newFakeRepo()
	return NewEntryService(repo, cfg), repo
}

func TestUpsert_Valid(t *testing.T) {
	svc, _ := newService()

	localID := uuid.NewString()
	got, err := svc.Upsert(context.Background(), "owner-1", localID, []byte(`{"mood":"calm","intensity":5}`), 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, localID, got.LocalID)
}

func TestUpsert_IdempotentOnResubmission(t *testing.T) {
	svc, _ := newService()

	localID := uuid.NewString()
	payload := []byte(`{"mood":"calm","intensity":5}`)

	first, err := svc.Upsert(context.Background(), "owner-1", localID, payload, 1000)
	require.NoError(t, err)

	second, err := svc.Upsert(context.Background(), "owner-1", localID, payload, 1000)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestUpsert_SameLocalIDDifferentOwners(t *testing.T) {
	svc, _ := newService()

	localID := uuid.NewString()
	payload := []byte(`{"mood":"calm"}`)

	a, err := svc.Upsert(context.Background(), "owner-a", localID, payload, 1000)
	require.NoError(t, err)
	b, err := svc.Upsert(context.Background(), "owner-b", localID, payload, 1000)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID, "idempotency is scoped per owner")
}

func TestUpsert_Rejections(t *testing.T) {
	svc, _ := newService()

	big, err := json.Marshal(map[string]string{"note": string(make([]byte, 100*1024))})
	require.NoError(t, err)

	tests := []struct {
		name    string
		localID string
		payload []byte
	}{
		{"non-uuid local id", "not-a-uuid", []byte(`{"mood":"calm"}`)},
		{"empty payload", uuid.NewString(), nil},
		{"payload too large", uuid.NewString(), big},
		{"payload not JSON", uuid.NewString(), []byte(`mood=calm`)},
		{"payload not an object", uuid.NewString(), []byte(`[1,2,3]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), "owner-1", tt.localID, tt.payload, 1000)
			assert.ErrorIs(t, err, common.ErrInvalidEntry)
		})
	}
}

func TestRecent_ClampsLimit(t *testing.T) {
	svc, _ := newService()

	for i := 0; i < 3; i++ {
		_, err := svc.Upsert(context.Background(), "owner-1", uuid.NewString(), []byte(`{"mood":"ok"}`), int64(i))
		require.NoError(t, err)
	}

	got, err := svc.Recent(context.Background(), "owner-1", -5)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestGetPresignedPutURL_KeyedByOwnerAndEntry(t *testing.T) {
	svc, _ := newService()

	entryLocalID := uuid.NewString()
	key, url, err := svc.GetPresignedPutURL(context.Background(), "owner-1", entryLocalID)
	require.NoError(t, err)

	assert.Equal(t, "owners/owner-1/"+entryLocalID, key)
	assert.Contains(t, url, key)

	// A repeated presign for the same entry points at the same object.
	again, _, err := svc.GetPresignedPutURL(context.Background(), "owner-1", entryLocalID)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestGetPresignedPutURL_RejectsBadEntryID(t *testing.T) {
	svc, _ := newService()

	_, _, err := svc.GetPresignedPutURL(context.Background(), "owner-1", "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrInvalidEntry)
}
