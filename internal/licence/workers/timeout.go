package workers

import (
	"context"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/internal/notify"
	"licences/internal/platform/privacy"
	"licences/internal/releasedates"
	"licences/pkg/requestcontext"
)

const (
	TimeOutJobName = "time-out"
	timeOutReason  = "Licence automatically timed out as it was not approved before the hard stop date"
)

// TimeOutJob times out unfinished licences whose hard-stop date has been
// reached. It only runs on working days. APPROVED licences are left for the
// activation job.
type TimeOutJob struct {
	base
	licences Licences
	dates    *releasedates.Service
	notifier notify.Sender
}

func NewTimeOutJob(licences Licences, dates *releasedates.Service, notifier notify.Sender, opts ...Option) *TimeOutJob {
	return &TimeOutJob{
		base:     newBase(TimeOutJobName, opts),
		licences: licences,
		dates:    dates,
		notifier: notifier,
	}
}

func (j *TimeOutJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	today := requestcontext.Today(ctx)
	if !j.dates.IsWorkingDay(today) {
		res.Skipped = "not a working day"
		return res, nil
	}

	var timedOut []models.Licence
	err := j.licences.RunInTx(ctx, func(ctx context.Context) error {
		candidates, err := j.licences.List(ctx, store.Filter{
			Kinds:    []models.Kind{models.KindCRD, models.KindPRRD},
			Statuses: []models.Status{models.StatusInProgress, models.StatusSubmitted},
		})
		if err != nil {
			return err
		}
		var due []models.Licence
		for _, l := range candidates {
			if j.dates.HardStopReached(l.Dates.LicenceStartDate, today) {
				due = append(due, l)
			}
		}
		res.Selected = len(due)
		timedOut, err = j.licences.TimeOutLicences(ctx, due, timeOutReason)
		return err
	})
	if err != nil {
		return res, err
	}
	res.add("timed_out", len(timedOut))

	// Emails go after commit. A failed run sends nothing; a re-run after a
	// crash between commit and send does not resend.
	for _, l := range timedOut {
		res.add("emailed", j.emailCom(ctx, l))
	}
	return res, nil
}

func (j *TimeOutJob) emailCom(ctx context.Context, l models.Licence) int {
	com, err := l.Com()
	if err != nil || com.Email == "" {
		j.logger.WarnContext(ctx, "timed out licence has no community offender manager email", "licence_id", l.ID)
		return 0
	}
	err = j.notifier.SendLicenceTimedOut(ctx,
		notify.Recipient{Email: com.Email, Name: com.FullName()},
		caseFor(l),
	)
	j.metrics.IncNotification(notify.TemplateLicenceTimedOut, err)
	if err != nil {
		j.logger.WarnContext(ctx, "failed to send timed out email",
			"licence_id", l.ID,
			"to", privacy.MaskEmail(com.Email),
			"error", err,
		)
		return 0
	}
	return 1
}
