//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"licences/internal/licence/licencetest"
	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/pkg/platform/sentinel"
	"licences/pkg/platform/tx"
	"licences/pkg/testutil"
	"licences/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	licences *store.PostgresStore
	events   *store.PostgresEventStore
	tx       *tx.PostgresTx
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.licences = store.NewPostgres(s.postgres.DB)
	s.events = store.NewPostgresEventStore(s.postgres.DB)
	s.tx = tx.NewPostgresTx(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

// =============================================================================
// Round trip
// =============================================================================
// Payload, dates and staff survive the row mapping.

func (s *PostgresStoreSuite) TestCreateAndGetRoundTrip() {
	ctx := context.Background()
	created, err := s.licences.Create(ctx, licencetest.New())
	s.Require().NoError(err)
	s.Equal(int64(1), created.RowVersion)

	fetched, err := s.licences.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, fetched.Status())
	s.Equal(models.KindCRD, fetched.Kind())
	s.Equal("A1234AA", fetched.Offender.NomsID)
	s.Equal(*licencetest.Date("2025-04-28"), *fetched.Dates.LicenceExpiryDate)

	_, err = s.licences.Get(ctx, created.ID+100)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// =============================================================================
// Optimistic locking
// =============================================================================
// Concurrent writers holding the same row version: exactly one wins.

func (s *PostgresStoreSuite) TestConcurrentUpdatesOneWins() {
	ctx := context.Background()
	created, err := s.licences.Create(ctx, licencetest.New())
	s.Require().NoError(err)

	result := testutil.RunConcurrent(8, func(i int) error {
		submitted, err := models.Submit(created, licencetest.Com, licencetest.Created.Add(time.Duration(i+1)*time.Minute))
		if err != nil {
			return err
		}
		_, err = s.licences.Update(ctx, submitted)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(7), result.Conflicts)

	fetched, err := s.licences.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, fetched.Status())
	s.Equal(int64(2), fetched.RowVersion)
}

// =============================================================================
// Filters
// =============================================================================
// The SQL predicate must agree with Filter.Matches.

func (s *PostgresStoreSuite) TestListMatchesInMemoryFilter() {
	ctx := context.Background()
	first, err := s.licences.Create(ctx, licencetest.New())
	s.Require().NoError(err)
	_, err = s.licences.Create(ctx, licencetest.New(licencetest.WithBooking("B2222BB", 2222)))
	s.Require().NoError(err)

	filters := []store.Filter{
		{NomsIDs: []string{"A1234AA"}},
		{Statuses: []models.Status{models.StatusInProgress}, TeamCodes: []string{"TEAM1"}},
		{LicenceExpiryBefore: licencetest.Date("2025-04-29")},
		{LicenceExpiryBefore: licencetest.Date("2025-04-28")},
		{IDs: []int64{first.ID}, Kinds: []models.Kind{models.KindCRD}},
	}
	all, err := s.licences.List(ctx, store.Filter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	for _, f := range filters {
		got, err := s.licences.List(ctx, f)
		s.Require().NoError(err)
		var want []int64
		for _, l := range all {
			if f.Matches(l) {
				want = append(want, l.ID)
			}
		}
		var ids []int64
		for _, l := range got {
			ids = append(ids, l.ID)
		}
		s.Equal(want, ids, "filter %+v", f)
	}
}

// =============================================================================
// Transactions
// =============================================================================
// A failed unit of work leaves neither the licence change nor its event behind.

func (s *PostgresStoreSuite) TestRunInTxRollsBackLicenceAndEvent() {
	ctx := context.Background()
	created, err := s.licences.Create(ctx, licencetest.New())
	s.Require().NoError(err)

	boom := errors.New("boom")
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		submitted, err := models.Submit(created, licencetest.Com, licencetest.Created.Add(time.Hour))
		if err != nil {
			return err
		}
		if _, err := s.licences.Update(ctx, submitted); err != nil {
			return err
		}
		if _, err := s.events.Append(ctx, models.NewLicenceEvent(submitted, models.EventSubmitted, licencetest.Com.Actor(), "Licence submitted", licencetest.Created.Add(time.Hour))); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	fetched, err := s.licences.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, fetched.Status())

	evs, err := s.events.ListByLicence(ctx, created.ID)
	s.Require().NoError(err)
	s.Empty(evs)
}
