package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licences/internal/licence/licencetest"
	"licences/internal/licence/models"
	"licences/pkg/platform/sentinel"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "pgx")), mock
}

func TestUpdateStaleRowVersionIsConflict(t *testing.T) {
	store, mock := newMockStore(t)
	l := licencetest.WithStatus(licencetest.New(), 5, models.StatusApproved)
	l.RowVersion = 3

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE licence SET row_version = row_version + 1")).
		WillReturnRows(sqlmock.NewRows([]string{"row_version"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := store.Update(context.Background(), l)
	require.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingLicenceIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	l := licencetest.WithStatus(licencetest.New(), 5, models.StatusApproved)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE licence")).
		WillReturnRows(sqlmock.NewRows([]string{"row_version"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := store.Update(context.Background(), l)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUpdateBumpsRowVersion(t *testing.T) {
	store, mock := newMockStore(t)
	l := licencetest.WithStatus(licencetest.New(), 5, models.StatusApproved)
	l.RowVersion = 3

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE licence")).
		WillReturnRows(sqlmock.NewRows([]string{"row_version"}).AddRow(int64(4)))

	saved, err := store.Update(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, int64(4), saved.RowVersion)
}

func TestCreateReturnsGeneratedID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO licence")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "row_version"}).AddRow(int64(12), int64(1)))

	created, err := store.Create(context.Background(), licencetest.New())
	require.NoError(t, err)
	assert.Equal(t, int64(12), created.ID)
	assert.Equal(t, int64(1), created.RowVersion)
}

func TestGetMissingLicence(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM licence WHERE id = $1")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Get(context.Background(), 8)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRowRoundTripKeepsKindPayload(t *testing.T) {
	src := licencetest.New(licencetest.WithPayload(models.Variation{
		VariationDetails: models.VariationDetails{VariationOfID: 3, SpoDiscussion: "Yes"},
	}))
	src = licencetest.WithStatus(src, 9, models.StatusVariationSubmitted)

	row, err := toRow(src)
	require.NoError(t, err)
	assert.Equal(t, int64(3), row.VariationOfID.Int64)

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, models.KindVariation, back.Kind())
	assert.Equal(t, models.StatusVariationSubmitted, back.Status())
	id, ok := back.VariationOfID()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, src.Dates.ConditionalReleaseDate, back.Dates.ConditionalReleaseDate)
	assert.Equal(t, src.StandardConditions, back.StandardConditions)
	assert.Equal(t, "Yes", back.Payload().(models.Variation).SpoDiscussion)
}

func TestFilterClause(t *testing.T) {
	where, args := filterClause(Filter{
		Kinds:         []models.Kind{models.KindCRD, models.KindPRRD},
		Statuses:      []models.Status{models.StatusApproved},
		ReviewPending: true,
	})
	assert.Equal(t, " WHERE kind = ANY($1) AND status_code = ANY($2) AND kind = ANY($3) AND review_date IS NULL", where)
	assert.Len(t, args, 3)

	where, args = filterClause(Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}
