package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"licences/internal/caseload/metrics"
	cmodels "licences/internal/caseload/models"
	"licences/internal/caseload/ports/mocks"
	"licences/internal/licence/licencetest"
	licence "licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/internal/releasedates"
	"licences/internal/upstream"
	"licences/internal/workingdays"
	dErrors "licences/pkg/domain-errors"
	"licences/pkg/platform/sentinel"
	"licences/pkg/requestcontext"
)

// =============================================================================
// Caseload Service Test Suite
// =============================================================================
// The caseload service merges four upstream sources into case views. Tests
// stub each source with gomock and check the merge rules: licence precedence,
// synthetic statuses for offenders without a licence, omissions and
// practitioner fallback.

type CaseloadSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	licences  *mocks.MockLicenceRepository
	prisoners *mocks.MockPrisonerSearch
	hdc       *mocks.MockHDCStatuses
	probation *mocks.MockProbation
	reg       *prometheus.Registry
	service   *Service
	ctx       context.Context
}

func TestCaseloadSuite(t *testing.T) {
	suite.Run(t, new(CaseloadSuite))
}

func (s *CaseloadSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.licences = mocks.NewMockLicenceRepository(s.ctrl)
	s.prisoners = mocks.NewMockPrisonerSearch(s.ctrl)
	s.hdc = mocks.NewMockHDCStatuses(s.ctrl)
	s.probation = mocks.NewMockProbation(s.ctrl)
	s.reg = prometheus.NewRegistry()

	var err error
	s.service, err = New(s.licences, s.prisoners, s.hdc, s.probation,
		releasedates.New(workingdays.Default()),
		WithMetrics(metrics.New(s.reg)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	s.ctx = on("2024-04-20")
}

func (s *CaseloadSuite) TearDownTest() {
	s.ctrl.Finish()
}

func on(day string) context.Context {
	d := licencetest.Date(day)
	return requestcontext.WithTime(context.Background(), time.Date(d.Year, d.Month, d.Day, 9, 0, 0, 0, time.UTC))
}

var carla = upstream.StaffDetail{Code: "N01A001", Identifier: 2000, Forename: "Carla", Surname: "Officer", Email: "com@probation.example"}

func offender(noms string) upstream.ManagedOffender {
	return upstream.ManagedOffender{CRN: "X" + noms, NomsID: noms, TeamCode: "TEAM1", Staff: carla}
}

func prisoner(noms string, booking int64, crd string) upstream.Prisoner {
	return upstream.Prisoner{
		PrisonerNumber:         noms,
		BookingID:              booking,
		FirstName:              "Bob",
		LastName:               "Smith",
		Status:                 "ACTIVE IN",
		PrisonID:               "MDI",
		ConditionalReleaseDate: licencetest.Date(crd),
		LicenceExpiryDate:      licencetest.Date("2025-04-28"),
	}
}

// expectNoLicences stubs the licence read and prisoner search for offenders
// that have no persisted licences.
func (s *CaseloadSuite) expectNoLicences(noms []string, found ...upstream.Prisoner) {
	s.licences.EXPECT().List(gomock.Any(), store.Filter{NomsIDs: noms}).Return(nil, nil)
	s.prisoners.EXPECT().SearchByNomsIDs(gomock.Any(), noms).Return(found, nil)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *CaseloadSuite) TestNew() {
	dates := releasedates.New(workingdays.Default())
	s.Run("nil licence repository returns error", func() {
		_, err := New(nil, s.prisoners, s.hdc, s.probation, dates)
		s.ErrorContains(err, "licence repository is required")
	})
	s.Run("nil release dates returns error", func() {
		_, err := New(s.licences, s.prisoners, s.hdc, s.probation, nil)
		s.ErrorContains(err, "release dates service is required")
	})
}

// =============================================================================
// Offenders Without A Licence
// =============================================================================

func (s *CaseloadSuite) TestRecallWithLaterPRRDIsOutOfScope() {
	p := prisoner("A0001AA", 1, "2024-04-29")
	p.Recall = true
	p.PostRecallReleaseDate = licencetest.Date("2024-04-30")
	s.expectNoLicences([]string{"A0001AA"}, p)
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), []int64{1}).Return(nil, nil)

	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{offender("A0001AA")})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(licence.StatusOOSRecall, views[0].LicenceStatus)
	s.Equal(licence.KindPRRD, views[0].LicenceKind)
	s.Equal(licencetest.Date("2024-04-30"), views[0].ReleaseDate)
	s.Equal(cmodels.LabelPostRecall, views[0].ReleaseDateLabel)
	s.False(views[0].HasLicence())
}

func (s *CaseloadSuite) TestRecallWithPRRDOnCRDIsNotStarted() {
	p := prisoner("A0001AA", 1, "2024-04-29")
	p.Recall = true
	p.PostRecallReleaseDate = licencetest.Date("2024-04-29")
	s.expectNoLicences([]string{"A0001AA"}, p)
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), []int64{1}).Return(nil, nil)

	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{offender("A0001AA")})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	v := views[0]
	s.Equal(licence.StatusNotStarted, v.LicenceStatus)
	s.Equal(licence.KindCRD, v.LicenceKind)
	s.Equal(licence.TypeAP, v.LicenceType)
	s.Equal(cmodels.LabelCRD, v.ReleaseDateLabel)
	s.Equal(licencetest.Date("2024-04-29"), v.LicenceStartDate)
	s.Equal(licencetest.Date("2024-04-25"), v.HardStopDate)
	s.Equal("Bob Smith", v.Name)
	s.Equal("Carla Officer", v.Practitioner.Name)
}

func (s *CaseloadSuite) TestConfirmedReleaseDateMovesStartNotReleaseDate() {
	p := prisoner("A0001AA", 1, "2024-04-29")
	p.Recall = true
	p.PostRecallReleaseDate = licencetest.Date("2024-04-29")
	p.ConfirmedReleaseDate = licencetest.Date("2024-04-24")
	s.expectNoLicences([]string{"A0001AA"}, p)
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), []int64{1}).Return(nil, nil)

	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{offender("A0001AA")})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	v := views[0]
	s.Equal(licence.StatusNotStarted, v.LicenceStatus)
	s.Equal(licencetest.Date("2024-04-29"), v.ReleaseDate)
	s.Equal(cmodels.LabelCRD, v.ReleaseDateLabel)
	s.Equal(licencetest.Date("2024-04-24"), v.LicenceStartDate)
}

func (s *CaseloadSuite) TestInsideHardStopWindowIsTimedOut() {
	p := prisoner("A0001AA", 1, "2024-04-29")
	s.expectNoLicences([]string{"A0001AA"}, p)
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), []int64{1}).Return(nil, nil)

	views, err := s.service.BuildCaseViews(on("2024-04-26"), []upstream.ManagedOffender{offender("A0001AA")})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(licence.StatusTimedOut, views[0].LicenceStatus)
}

func (s *CaseloadSuite) TestOmissions() {
	approved := prisoner("A0002AA", 2, "2024-05-10")
	dead := prisoner("A0003AA", 3, "2024-05-10")
	dead.LegalStatus = upstream.LegalStatusDead
	eligible := prisoner("A0004AA", 4, "2024-05-10")

	noms := []string{"A0001AA", "A0002AA", "A0003AA", "A0004AA"}
	s.expectNoLicences(noms, approved, dead, eligible)
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), []int64{2, 3, 4}).
		Return([]upstream.HDCStatus{{BookingID: 2, ApprovalStatus: upstream.HDCApproved}}, nil)

	offenders := []upstream.ManagedOffender{
		offender("A0001AA"), offender("A0002AA"), offender("A0003AA"), offender("A0004AA"),
		{CRN: "X9999", Staff: carla},
	}
	views, err := s.service.BuildCaseViews(s.ctx, offenders)
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("A0004AA", views[0].NomsID)

	omitted := func(reason string) float64 {
		return testutil.ToFloat64(s.service.metrics.Omitted.WithLabelValues(reason))
	}
	s.Equal(1.0, omitted("prisoner_not_found"))
	s.Equal(1.0, omitted(string(cmodels.ReasonHDCApproved)))
	s.Equal(1.0, omitted(string(cmodels.ReasonDead)))
	s.Equal(1.0, omitted("no_prison_number"))
}

// =============================================================================
// Offenders With Licences
// =============================================================================

func (s *CaseloadSuite) TestMostAuthoritativeLicenceSpeaksForCase() {
	active := licencetest.WithStatus(licencetest.New(licencetest.WithCreatedAt(licencetest.Created)), 10, licence.StatusActive)
	newer := licencetest.WithStatus(licencetest.New(licencetest.WithCreatedAt(licencetest.Created.Add(48*time.Hour))), 11, licence.StatusVariationInProgress)
	discarded := licencetest.WithStatus(licencetest.New(), 12, licence.StatusDiscarded)

	s.licences.EXPECT().List(gomock.Any(), store.Filter{NomsIDs: []string{"A1234AA"}}).
		Return([]licence.Licence{newer, discarded, active}, nil)
	s.prisoners.EXPECT().SearchByNomsIDs(gomock.Any(), []string{"A1234AA"}).
		Return([]upstream.Prisoner{prisoner("A1234AA", 54321, "2024-04-29")}, nil)

	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{offender("A1234AA")})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	v := views[0]
	s.Require().NotNil(v.LicenceID)
	s.Equal(int64(10), *v.LicenceID)
	s.Equal(licence.StatusActive, v.LicenceStatus)
	s.Equal([]int64{11}, v.History)
	s.Equal(cmodels.LabelCRD, v.ReleaseDateLabel)
	s.Equal(licencetest.Date("2024-04-25"), v.HardStopDate)
}

func (s *CaseloadSuite) TestActiveHardStopLicenceNeedsReview() {
	l := licencetest.WithStatus(licencetest.New(licencetest.WithPayload(licence.HardStop{})), 20, licence.StatusActive)
	s.licences.EXPECT().List(gomock.Any(), gomock.Any()).Return([]licence.Licence{l}, nil)
	s.prisoners.EXPECT().SearchByNomsIDs(gomock.Any(), gomock.Any()).
		Return([]upstream.Prisoner{prisoner("A1234AA", 54321, "2024-04-29")}, nil)

	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{offender("A1234AA")})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.True(views[0].IsReviewNeeded)
	s.Equal(licence.KindHardStop, views[0].LicenceKind)
}

// =============================================================================
// Practitioners And Ordering
// =============================================================================

func (s *CaseloadSuite) TestUnallocatedPractitioner() {
	s.expectNoLicences([]string{"A0001AA"}, prisoner("A0001AA", 1, "2024-05-10"))
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), gomock.Any()).Return(nil, nil)

	o := offender("A0001AA")
	o.Staff = upstream.StaffDetail{Code: "N01U", Unallocated: true}
	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{o})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.True(views[0].Practitioner.Unallocated)
	s.Equal(cmodels.UnallocatedName, views[0].Practitioner.Name)
	s.Empty(views[0].Practitioner.Email)
}

func (s *CaseloadSuite) TestAllocatedPractitionerWithoutNameStaysAllocated() {
	s.expectNoLicences([]string{"A0001AA"}, prisoner("A0001AA", 1, "2024-05-10"))
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), gomock.Any()).Return(nil, nil)

	o := offender("A0001AA")
	o.Staff = upstream.StaffDetail{Identifier: 9, Code: "N01A"}
	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{o})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.False(views[0].Practitioner.Unallocated)
	s.Equal(int64(9), views[0].Practitioner.StaffIdentifier)
	s.Equal("N01A", views[0].Practitioner.StaffCode)
	s.NotEqual(cmodels.UnallocatedName, views[0].Practitioner.Name)
}

func (s *CaseloadSuite) TestViewsOrderedByReleaseDate() {
	noms := []string{"A0003AA", "A0001AA", "A0002AA"}
	s.expectNoLicences(noms,
		prisoner("A0001AA", 1, "2024-05-20"),
		prisoner("A0002AA", 2, "2024-05-10"),
		prisoner("A0003AA", 3, "2024-05-20"),
	)
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), gomock.Any()).Return(nil, nil)

	views, err := s.service.BuildCaseViews(s.ctx, []upstream.ManagedOffender{
		offender("A0003AA"), offender("A0001AA"), offender("A0002AA"), offender("A0001AA"),
	})
	s.Require().NoError(err)
	got := make([]string, 0, len(views))
	for _, v := range views {
		got = append(got, v.NomsID)
	}
	s.Equal([]string{"A0002AA", "A0001AA", "A0003AA"}, got)
}

// =============================================================================
// Caseload Entry Points
// =============================================================================

func (s *CaseloadSuite) TestCaseloadForStaff() {
	s.Run("rejects missing identifier", func() {
		_, err := s.service.CaseloadForStaff(s.ctx, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
	s.Run("staff unknown to probation has an empty caseload", func() {
		s.probation.EXPECT().ManagedOffendersForStaff(gomock.Any(), int64(2000)).Return(nil, sentinel.ErrNotFound)
		views, err := s.service.CaseloadForStaff(s.ctx, 2000)
		s.Require().NoError(err)
		s.Empty(views)
	})
	s.Run("probation outage is unavailable", func() {
		s.probation.EXPECT().ManagedOffendersForStaff(gomock.Any(), int64(2000)).
			Return(nil, fmt.Errorf("delius: %w", sentinel.ErrUnavailable))
		_, err := s.service.CaseloadForStaff(s.ctx, 2000)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *CaseloadSuite) TestCaseloadForTeamsPropagatesSearchFailure() {
	s.probation.EXPECT().ManagedOffendersForTeams(gomock.Any(), []string{"TEAM1"}).
		Return([]upstream.ManagedOffender{offender("A0001AA")}, nil)
	s.licences.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	s.prisoners.EXPECT().SearchByNomsIDs(gomock.Any(), gomock.Any()).Return(nil, errors.Join(errors.New("search down"), sentinel.ErrUnavailable))

	_, err := s.service.CaseloadForTeams(s.ctx, []string{"TEAM1"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *CaseloadSuite) TestCaseloadForPrisons() {
	from := civil.Date{Year: 2024, Month: 4, Day: 20}
	to := civil.Date{Year: 2024, Month: 5, Day: 18}
	s.prisoners.EXPECT().SearchByReleaseDate(gomock.Any(), []string{"MDI"}, from, to).
		Return([]upstream.Prisoner{prisoner("A0001AA", 1, "2024-05-10"), prisoner("A0002AA", 2, "2024-05-01")}, nil)
	s.probation.EXPECT().ManagedOffendersByNomsIDs(gomock.Any(), []string{"A0001AA", "A0002AA"}).
		Return([]upstream.ManagedOffender{offender("A0001AA")}, nil)
	s.licences.EXPECT().List(gomock.Any(), store.Filter{NomsIDs: []string{"A0001AA", "A0002AA"}}).Return(nil, nil)
	s.hdc.EXPECT().HDCStatuses(gomock.Any(), []int64{1, 2}).Return(nil, nil)

	views, err := s.service.CaseloadForPrisons(s.ctx, []string{"MDI"})
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal("A0002AA", views[0].NomsID)
	s.True(views[0].Practitioner.Unallocated)
	s.Equal("A0001AA", views[1].NomsID)
	s.Equal("Carla Officer", views[1].Practitioner.Name)
}
