package workers

import (
	"context"
	"maps"
	"slices"
	"strings"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/internal/notify"
	"licences/internal/platform/privacy"
	"licences/pkg/requestcontext"
)

const UnapprovedJobName = "unapproved-licence"

// UnapprovedJob tells community offender managers about submitted licences
// whose start date has been reached without approval. Every run re-selects
// from current state, so a missed day is picked up by the next run.
type UnapprovedJob struct {
	base
	licences Licences
	notifier notify.Sender
}

func NewUnapprovedJob(licences Licences, notifier notify.Sender, opts ...Option) *UnapprovedJob {
	return &UnapprovedJob{base: newBase(UnapprovedJobName, opts), licences: licences, notifier: notifier}
}

func (j *UnapprovedJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	today := requestcontext.Today(ctx)
	submitted, err := j.licences.List(ctx, store.Filter{
		Statuses: []models.Status{models.StatusSubmitted},
	})
	if err != nil {
		return res, err
	}

	byEmail := make(map[string][]models.Licence)
	coms := make(map[string]models.Staff)
	for _, l := range submitted {
		lsd := l.Dates.LicenceStartDate
		if lsd == nil || lsd.After(today) {
			continue
		}
		res.Selected++
		com, err := l.Com()
		if err != nil || com.Email == "" {
			res.add("no_recipient", 1)
			continue
		}
		key := strings.ToLower(com.Email)
		byEmail[key] = append(byEmail[key], l)
		coms[key] = com
	}

	for _, key := range slices.Sorted(maps.Keys(byEmail)) {
		com := coms[key]
		cases := make([]notify.Case, 0, len(byEmail[key]))
		for _, l := range byEmail[key] {
			cases = append(cases, caseFor(l))
		}
		err := j.notifier.SendUnapprovedLicence(ctx, notify.Recipient{Email: com.Email, Name: com.FullName()}, cases)
		j.metrics.IncNotification(notify.TemplateUnapprovedAtRisk, err)
		if err != nil {
			j.logger.WarnContext(ctx, "failed to send unapproved licence email",
				"to", privacy.MaskEmail(com.Email),
				"error", err,
			)
			res.add("email_failed", len(cases))
			continue
		}
		res.add("emailed", len(cases))
	}
	return res, nil
}
