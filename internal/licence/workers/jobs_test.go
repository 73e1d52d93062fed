package workers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"licences/internal/events"
	"licences/internal/licence/licencetest"
	"licences/internal/licence/models"
	"licences/internal/licence/service/servicetest"
	"licences/internal/licence/workers"
	"licences/internal/notify"
	"licences/internal/releasedates"
	"licences/internal/upstream"
	"licences/internal/workingdays"
	"licences/pkg/platform/sentinel"
)

type prisonStub struct {
	is91     []int64
	statuses []upstream.HDCStatus
	err      error
}

func (p *prisonStub) HDCStatuses(_ context.Context, _ []int64) ([]upstream.HDCStatus, error) {
	return p.statuses, p.err
}

func (p *prisonStub) IS91Bookings(_ context.Context, _ []int64) ([]int64, error) {
	return p.is91, p.err
}

type searchStub struct {
	prisoners []upstream.Prisoner
}

func (s *searchStub) SearchByNomsIDs(_ context.Context, _ []string) ([]upstream.Prisoner, error) {
	return s.prisoners, nil
}

type sent struct {
	template string
	to       string
	cases    int
}

type senderStub struct {
	sent []sent
	err  error
}

func (s *senderStub) SendReviewReminder(_ context.Context, to notify.Recipient, cases []notify.Case) error {
	s.sent = append(s.sent, sent{notify.TemplateReviewReminder, to.Email, len(cases)})
	return s.err
}

func (s *senderStub) SendLicenceTimedOut(_ context.Context, to notify.Recipient, _ notify.Case) error {
	s.sent = append(s.sent, sent{notify.TemplateLicenceTimedOut, to.Email, 1})
	return s.err
}

func (s *senderStub) SendUnapprovedLicence(_ context.Context, to notify.Recipient, cases []notify.Case) error {
	s.sent = append(s.sent, sent{notify.TemplateUnapprovedAtRisk, to.Email, len(cases)})
	return s.err
}

func at(day string) time.Time {
	d := licencetest.Date(day)
	return time.Date(d.Year, d.Month, d.Day, 6, 0, 0, 0, time.UTC)
}

type JobsSuite struct {
	suite.Suite
	h      *servicetest.Harness
	prison *prisonStub
	search *searchStub
	sender *senderStub
	dates  *releasedates.Service
	opts   []workers.Option
}

func TestJobsSuite(t *testing.T) {
	suite.Run(t, new(JobsSuite))
}

func (s *JobsSuite) SetupTest() {
	s.h = servicetest.New(s.T())
	s.prison = &prisonStub{}
	s.search = &searchStub{}
	s.sender = &senderStub{}
	s.dates = releasedates.New(workingdays.Default())
	s.opts = []workers.Option{
		workers.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		workers.WithMetrics(s.h.Metrics),
	}
}

func (s *JobsSuite) run(job workers.Job, day string) workers.Result {
	res, err := job.RunOnce(servicetest.At(at(day)))
	s.Require().NoError(err)
	return res
}

func (s *JobsSuite) seed(l models.Licence, status models.Status) models.Licence {
	return s.h.Seed(s.T(), licencetest.WithStatus(l, 0, status))
}

func (s *JobsSuite) TestTimeOutIsIdempotent() {
	draft := s.seed(licencetest.New(), models.StatusInProgress)
	submitted := s.seed(licencetest.New(licencetest.WithBooking("B2222BB", 2)), models.StatusSubmitted)
	notDue := s.seed(licencetest.New(licencetest.WithDates(models.SentenceDates{
		ConditionalReleaseDate: licencetest.Date("2024-05-20"),
		LicenceStartDate:       licencetest.Date("2024-05-20"),
	})), models.StatusInProgress)
	hdc := s.seed(licencetest.New(licencetest.WithPayload(models.HDC{})), models.StatusInProgress)
	job := workers.NewTimeOutJob(s.h.Service, s.dates, s.sender, s.opts...)

	// 2024-04-25 is two working days before the Monday 29th release.
	first := s.run(job, "2024-04-25")
	s.Equal(2, first.Selected)
	s.Equal(2, first.Counts["timed_out"])
	s.Equal(2, first.Counts["emailed"])
	s.Equal(models.StatusTimedOut, s.h.Reload(s.T(), draft.ID).Status())
	s.Equal(models.StatusTimedOut, s.h.Reload(s.T(), submitted.ID).Status())
	s.Equal(models.StatusInProgress, s.h.Reload(s.T(), notDue.ID).Status())
	s.Equal(models.StatusInProgress, s.h.Reload(s.T(), hdc.ID).Status())
	s.Equal([]models.EventType{models.EventTimedOut}, s.h.EventTypes(draft.ID))

	second := s.run(job, "2024-04-25")
	s.Zero(second.Selected)
	s.Empty(second.Counts)
	s.Len(s.sender.sent, 2)
}

func (s *JobsSuite) TestTimeOutLeavesApprovedLicencesForActivation() {
	approved := s.seed(licencetest.New(), models.StatusApproved)
	job := workers.NewTimeOutJob(s.h.Service, s.dates, s.sender, s.opts...)

	res := s.run(job, "2024-04-25")
	s.Zero(res.Selected)
	s.Equal(models.StatusApproved, s.h.Reload(s.T(), approved.ID).Status())
	s.Empty(s.sender.sent)
}

func (s *JobsSuite) TestTimeOutSkipsNonWorkingDays() {
	draft := s.seed(licencetest.New(), models.StatusInProgress)
	job := workers.NewTimeOutJob(s.h.Service, s.dates, s.sender, s.opts...)

	res := s.run(job, "2024-04-27")
	s.Equal("not a working day", res.Skipped)
	s.Equal(models.StatusInProgress, s.h.Reload(s.T(), draft.ID).Status())
}

func (s *JobsSuite) TestTimeOutEmailFailureKeepsTransition() {
	draft := s.seed(licencetest.New(), models.StatusInProgress)
	s.sender.err = errors.New("provider down")
	job := workers.NewTimeOutJob(s.h.Service, s.dates, s.sender, s.opts...)

	res := s.run(job, "2024-04-26")
	s.Equal(1, res.Counts["timed_out"])
	s.Zero(res.Counts["emailed"])
	s.Equal(models.StatusTimedOut, s.h.Reload(s.T(), draft.ID).Status())
	s.Equal(1.0, testutil.ToFloat64(s.h.Metrics.NotifyFailures.WithLabelValues(notify.TemplateLicenceTimedOut)))
}

func (s *JobsSuite) TestActivationEndToEnd() {
	l := s.h.Seed(s.T(), licencetest.Approved(0, licencetest.WithDates(models.SentenceDates{
		ConditionalReleaseDate: licencetest.Date("2024-04-29"),
		LicenceStartDate:       licencetest.Date("2024-04-29"),
		LicenceExpiryDate:      licencetest.Date("2025-04-28"),
	})))
	job := workers.NewActivationJob(s.h.Service, s.prison, s.opts...)

	res := s.run(job, "2024-04-29")

	s.Equal(1, res.Counts["activated"])
	s.Equal(models.StatusActive, s.h.Reload(s.T(), l.ID).Status())
	s.Len(s.h.Audit.All(), 1)
	s.Equal([]models.EventType{models.EventActivated}, s.h.EventTypes(l.ID))
	s.Equal([]string{string(events.LicenceActivated)}, s.h.DomainEventTypes())
}

func (s *JobsSuite) TestActivationWaitsForReleaseDay() {
	l := s.h.Seed(s.T(), licencetest.Approved(0))
	job := workers.NewActivationJob(s.h.Service, s.prison, s.opts...)

	res := s.run(job, "2024-04-28")
	s.Zero(res.Selected)
	s.Equal(models.StatusApproved, s.h.Reload(s.T(), l.ID).Status())
}

func (s *JobsSuite) TestActivationInactivatesWhenHDCApproved() {
	l := s.h.Seed(s.T(), licencetest.Approved(0))
	s.prison.statuses = []upstream.HDCStatus{{BookingID: l.Offender.BookingID, ApprovalStatus: upstream.HDCApproved}}
	job := workers.NewActivationJob(s.h.Service, s.prison, s.opts...)

	res := s.run(job, "2024-04-29")

	s.Equal(1, res.Counts["inactivated"])
	s.Zero(res.Counts["activated"])
	s.Equal(models.StatusInactive, s.h.Reload(s.T(), l.ID).Status())
	s.Equal([]string{string(events.LicenceInactivated)}, s.h.DomainEventTypes())
}

func (s *JobsSuite) TestActivationIS91UsesCRD() {
	// Licence start date moved later than the CRD; IS91 bookings ignore it.
	l := s.h.Seed(s.T(), licencetest.Approved(0, licencetest.WithDates(models.SentenceDates{
		ConditionalReleaseDate: licencetest.Date("2024-04-29"),
		LicenceStartDate:       licencetest.Date("2024-05-02"),
	})))
	s.prison.is91 = []int64{l.Offender.BookingID}
	job := workers.NewActivationJob(s.h.Service, s.prison, s.opts...)

	s.run(job, "2024-04-29")
	s.Equal(models.StatusActive, s.h.Reload(s.T(), l.ID).Status())
}

func (s *JobsSuite) TestActivationUpstreamFailureFailsRun() {
	l := s.h.Seed(s.T(), licencetest.Approved(0))
	s.prison.err = sentinel.ErrUnavailable
	job := workers.NewActivationJob(s.h.Service, s.prison, s.opts...)

	_, err := job.RunOnce(servicetest.At(at("2024-04-29")))
	s.Require().ErrorIs(err, sentinel.ErrUnavailable)
	s.Equal(models.StatusApproved, s.h.Reload(s.T(), l.ID).Status())
	s.Empty(s.h.Audit.All())
}

func (s *JobsSuite) TestExpiry() {
	expired := s.seed(licencetest.New(), models.StatusActive)
	pss := s.seed(licencetest.New(
		licencetest.WithBooking("B2222BB", 2),
		licencetest.WithDates(models.SentenceDates{
			ConditionalReleaseDate:     licencetest.Date("2024-04-29"),
			LicenceExpiryDate:          licencetest.Date("2025-04-28"),
			TopupSupervisionExpiryDate: licencetest.Date("2025-10-28"),
		}),
	), models.StatusActive)
	job := workers.NewExpiryJob(s.h.Service, s.opts...)

	s.Zero(s.run(job, "2025-04-28").Selected, "LED itself is not past")

	res := s.run(job, "2025-04-29")
	s.Equal(1, res.Counts["inactivated"])
	s.Equal(models.StatusInactive, s.h.Reload(s.T(), expired.ID).Status())
	s.Equal(models.StatusActive, s.h.Reload(s.T(), pss.ID).Status(), "AP_PSS runs to TUSED")
}

func (s *JobsSuite) TestIneligibleHDC() {
	no := false
	refused := s.seed(licencetest.New(licencetest.WithPayload(models.HDC{}), licencetest.WithBooking("A1111AA", 1)), models.StatusSubmitted)
	failed := s.seed(licencetest.New(licencetest.WithPayload(models.HDC{}), licencetest.WithBooking("A2222AA", 2)), models.StatusInProgress)
	pending := s.seed(licencetest.New(licencetest.WithPayload(models.HDC{}), licencetest.WithBooking("A3333AA", 3)), models.StatusApproved)
	s.prison.statuses = []upstream.HDCStatus{
		{BookingID: 1, ApprovalStatus: upstream.HDCRejected},
		{BookingID: 2, Passed: &no},
		{BookingID: 3, ApprovalStatus: upstream.HDCPending},
	}
	job := workers.NewIneligibleHDCJob(s.h.Service, s.prison, s.opts...)

	res := s.run(job, "2024-04-20")

	s.Equal(2, res.Counts["inactivated"])
	s.Equal(models.StatusInactive, s.h.Reload(s.T(), refused.ID).Status())
	s.Equal(models.StatusInactive, s.h.Reload(s.T(), failed.ID).Status())
	s.Equal(models.StatusApproved, s.h.Reload(s.T(), pending.ID).Status())
	s.Len(s.h.DomainEventTypes(), 2)
}

func (s *JobsSuite) TestRecall() {
	recalled := s.seed(licencetest.New(licencetest.WithBooking("A1111AA", 1)), models.StatusActive)
	caughtUp := s.seed(licencetest.New(licencetest.WithBooking("A2222AA", 2)), models.StatusActive)
	s.search.prisoners = []upstream.Prisoner{
		{PrisonerNumber: "A1111AA", Recall: true, PostRecallReleaseDate: licencetest.Date("2024-04-30")},
		{PrisonerNumber: "A2222AA", Recall: true, PostRecallReleaseDate: licencetest.Date("2024-04-29")},
	}
	job := workers.NewRecallJob(s.h.Service, s.search, s.opts...)

	res := s.run(job, "2024-05-10")

	s.Equal(1, res.Counts["inactivated"])
	s.Equal(models.StatusInactive, s.h.Reload(s.T(), recalled.ID).Status())
	s.Equal(models.StatusActive, s.h.Reload(s.T(), caughtUp.ID).Status())
	history, err := s.h.Service.ListEvents(context.Background(), recalled.ID)
	s.Require().NoError(err)
	s.Equal("Licence automatically inactivated as the offender was recalled", history[0].Description)
}

func (s *JobsSuite) TestReviewRemindersGroupedByCom() {
	s.seed(licencetest.New(licencetest.WithPayload(models.HardStop{})), models.StatusActive)
	s.seed(licencetest.New(licencetest.WithPayload(models.TimeServed{}), licencetest.WithBooking("B2222BB", 2)), models.StatusActive)
	s.seed(licencetest.New(licencetest.WithBooking("C3333CC", 3)), models.StatusActive)
	job := workers.NewReviewJob(s.h.Service, s.sender, s.opts...)

	res := s.run(job, "2024-05-01")

	s.Equal(2, res.Selected)
	s.Equal([]sent{{notify.TemplateReviewReminder, licencetest.Com.Email, 2}}, s.sender.sent)
	s.Equal(1.0, testutil.ToFloat64(s.h.Metrics.NotificationsOK.WithLabelValues(notify.TemplateReviewReminder)))
}

func (s *JobsSuite) TestRemoveExpiredConditions() {
	l := s.seed(licencetest.New(licencetest.WithDates(models.SentenceDates{
		ConditionalReleaseDate:     licencetest.Date("2024-04-29"),
		LicenceExpiryDate:          licencetest.Date("2024-05-31"),
		TopupSupervisionExpiryDate: licencetest.Date("2025-04-28"),
	})), models.StatusActive)
	s.Require().Equal(models.TypeAPPSS, l.TypeCode)
	s.Require().True(l.HasAPConditions())
	job := workers.NewConditionsJob(s.h.Service, s.opts...)

	s.Zero(s.run(job, "2024-05-31").Selected, "still in licence period")

	res := s.run(job, "2024-06-01")
	s.Equal(1, res.Counts["conditions_removed"])
	s.False(s.h.Reload(s.T(), l.ID).HasAPConditions())

	s.Zero(s.run(job, "2024-06-02").Selected)
}

func (s *JobsSuite) TestUnapprovedLicenceEmail() {
	startingOn := func(day string) licencetest.Option {
		return licencetest.WithDates(models.SentenceDates{
			ConditionalReleaseDate: licencetest.Date(day),
			LicenceStartDate:       licencetest.Date(day),
			LicenceExpiryDate:      licencetest.Date("2025-04-28"),
		})
	}
	// submitted and due yesterday or today: both reported
	s.seed(licencetest.New(), models.StatusSubmitted)
	s.seed(licencetest.New(licencetest.WithBooking("B2222BB", 2), startingOn("2024-04-30")), models.StatusSubmitted)
	// not yet due, approved, or still a draft: ignored
	s.seed(licencetest.New(licencetest.WithBooking("C3333CC", 3), startingOn("2024-05-20")), models.StatusSubmitted)
	s.seed(licencetest.New(licencetest.WithBooking("D4444DD", 4)), models.StatusApproved)
	s.seed(licencetest.New(licencetest.WithBooking("E5555EE", 5)), models.StatusInProgress)
	s.seed(licencetest.New(licencetest.WithBooking("F6666FF", 6)), models.StatusTimedOut)
	job := workers.NewUnapprovedJob(s.h.Service, s.sender, s.opts...)

	res := s.run(job, "2024-04-30")
	s.Equal(2, res.Selected)
	s.Equal(2, res.Counts["emailed"])
	s.Equal([]sent{{notify.TemplateUnapprovedAtRisk, licencetest.Com.Email, 2}}, s.sender.sent)
}

func (s *JobsSuite) TestUnapprovedLicenceNotReportedBeforeStartDate() {
	s.seed(licencetest.New(), models.StatusSubmitted)
	job := workers.NewUnapprovedJob(s.h.Service, s.sender, s.opts...)

	res := s.run(job, "2024-04-26")
	s.Zero(res.Selected)
	s.Empty(s.sender.sent)
}
