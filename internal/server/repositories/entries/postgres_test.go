package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/moodlog-app/moodlog/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const upsertQuery = `(?s)^INSERT\s+INTO\s+entries\s*\(owner_id,\s*local_id,\s*payload,\s*created_at_client\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(owner_id,\s*local_id\)\s*DO\s+UPDATE\s+SET\s+local_id\s*=\s*EXCLUDED\.local_id\s*RETURNING\s+id,\s*created_at\s*$`

func TestUpsert_AssignsIdentity(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("srv-1", created)
	mock.ExpectQuery(upsertQuery).
		WithArgs("owner-1", "local-1", []byte(`{"mood":"calm"}`), int64(1000)).
		WillReturnRows(rows)

	e := &models.Entry{
		OwnerID:         "owner-1",
		LocalID:         "local-1",
		Payload:         json.RawMessage(`{"mood":"calm"}`),
		CreatedAtClient: 1000,
	}
	got, err := repo.Upsert(context.Background(), e)
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if got.ID != "srv-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestUpsert_ResubmissionReturnsSameIdentity(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// The conflict path flows through the same statement, so the mock just
	// returns the originally assigned row.
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(upsertQuery).
			WithArgs("owner-1", "local-1", []byte(`{"mood":"calm"}`), int64(1000)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("srv-1", created))
	}

	e := &models.Entry{
		OwnerID:         "owner-1",
		LocalID:         "local-1",
		Payload:         json.RawMessage(`{"mood":"calm"}`),
		CreatedAtClient: 1000,
	}

	first, err := repo.Upsert(context.Background(), e)
	if err != nil {
		t.Fatalf("first Upsert error: %v", err)
	}
	second, err := repo.Upsert(context.Background(), e)
	if err != nil {
		t.Fatalf("second Upsert error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("resubmission changed identity: %s vs %s", first.ID, second.ID)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQuery).
		WillReturnError(errors.New("db down"))

	_, err := repo.Upsert(context.Background(), &models.Entry{
		OwnerID: "owner-1", LocalID: "local-1", Payload: json.RawMessage(`{}`),
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSelectRecentByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*owner_id,\s*local_id,\s*payload,\s*created_at_client,\s*created_at\s+FROM\s+entries\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at_client\s+DESC\s+LIMIT\s+\$2\s*$`

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "local_id", "payload", "created_at_client", "created_at"}).
		AddRow("srv-2", "owner-1", "local-2", []byte(`{"mood":"great"}`), int64(2000), created).
		AddRow("srv-1", "owner-1", "local-1", []byte(`{"mood":"calm"}`), int64(1000), created)
	mock.ExpectQuery(q).WithArgs("owner-1", 10).WillReturnRows(rows)

	got, err := repo.SelectRecentByOwner(context.Background(), "owner-1", 10)
	if err != nil {
		t.Fatalf("SelectRecentByOwner error: %v", err)
	}
	if len(got) != 2 || got[0].LocalID != "local-2" || got[1].LocalID != "local-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSelectCreatedSince(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*owner_id,\s*local_id,\s*payload,\s*created_at_client,\s*created_at\s+FROM\s+entries\s+WHERE\s+created_at\s*>=\s*\$1\s+ORDER\s+BY\s+created_at\s+ASC\s*$`

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "local_id", "payload", "created_at_client", "created_at"}).
		AddRow("srv-1", "owner-1", "local-1", []byte(`{"mood":"calm"}`), int64(1000), since.Add(time.Hour))
	mock.ExpectQuery(q).WithArgs(since).WillReturnRows(rows)

	got, err := repo.SelectCreatedSince(context.Background(), since)
	if err != nil {
		t.Fatalf("SelectCreatedSince error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "srv-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
