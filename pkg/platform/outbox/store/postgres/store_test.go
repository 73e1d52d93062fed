package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licences/pkg/platform/outbox"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "pgx")), mock
}

func TestFetchUnprocessedCapsBatch(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	created := time.Date(2024, 4, 29, 6, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at", "processed_at"}).
		AddRow(id.String(), "licence", "7", "create-and-vary-a-licence.licence.activated", []byte(`{}`), created, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).WithArgs(maxBatch).WillReturnRows(rows)

	entries, err := store.FetchUnprocessed(context.Background(), 5000)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.True(t, entries[0].IsPending())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchUnprocessedZeroLimit(t *testing.T) {
	store, mock := newMockStore(t)
	entries, err := store.FetchUnprocessed(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessedMissingEntry(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	at := time.Date(2024, 4, 29, 6, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox SET processed_at")).
		WithArgs(id, at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkProcessed(context.Background(), id, at)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already processed")
}

func TestAppend(t *testing.T) {
	store, mock := newMockStore(t)
	entry := outbox.NewEntry("licence", "7", "create-and-vary-a-licence.licence.inactivated", []byte(`{"licenceId":"7"}`), time.Now())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox")).
		WithArgs(entry.ID, "licence", "7", entry.EventType, entry.Payload, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Append(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}
