//go:build integration

package adapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"licences/internal/caseload/adapters"
	"licences/internal/caseload/metrics"
	"licences/internal/caseload/ports/mocks"
	"licences/internal/licence/licencetest"
	"licences/internal/upstream"
	"licences/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	ctrl    *gomock.Controller
	search  *mocks.MockPrisonerSearch
	metrics *metrics.Metrics
	cache   *adapters.CachedPrisonerSearch
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.ctrl = gomock.NewController(s.T())
	s.search = mocks.NewMockPrisonerSearch(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = adapters.NewCachedPrisonerSearch(s.search, s.redis.Client, time.Minute, s.metrics, nil)
}

func (s *RedisCacheSuite) TestSecondLookupIsServedFromCache() {
	ctx := context.Background()
	p := upstream.Prisoner{
		PrisonerNumber:         "A1234AA",
		BookingID:              54321,
		FirstName:              "Bob",
		LastName:               "Smith",
		ConditionalReleaseDate: licencetest.Date("2024-04-29"),
	}
	s.search.EXPECT().SearchByNomsIDs(gomock.Any(), []string{"A1234AA"}).Return([]upstream.Prisoner{p}, nil).Times(1)

	_, err := s.cache.SearchByNomsIDs(ctx, []string{"A1234AA"})
	s.Require().NoError(err)
	got, err := s.cache.SearchByNomsIDs(ctx, []string{"A1234AA"})
	s.Require().NoError(err)

	s.Equal([]upstream.Prisoner{p}, got)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheHits))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheMisses))

	ttl, err := s.redis.Client.TTL(ctx, "caseload:prisoner:A1234AA").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCacheSuite) TestOnlyMissesAreFetched() {
	ctx := context.Background()
	s.search.EXPECT().SearchByNomsIDs(gomock.Any(), []string{"A0001AA"}).
		Return([]upstream.Prisoner{{PrisonerNumber: "A0001AA", BookingID: 1}}, nil)
	_, err := s.cache.SearchByNomsIDs(ctx, []string{"A0001AA"})
	s.Require().NoError(err)

	s.search.EXPECT().SearchByNomsIDs(gomock.Any(), []string{"A0002AA"}).
		Return([]upstream.Prisoner{{PrisonerNumber: "A0002AA", BookingID: 2}}, nil)
	got, err := s.cache.SearchByNomsIDs(ctx, []string{"A0001AA", "A0002AA"})
	s.Require().NoError(err)
	s.Len(got, 2)
}
