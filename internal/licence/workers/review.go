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
)

const ReviewJobName = "review-overdue"

// ReviewJob emails each community offender manager the list of their
// active hard-stop originated licences that still need a review. It changes
// no licence state and sends again on every run until the review is done.
type ReviewJob struct {
	base
	licences Licences
	notifier notify.Sender
}

func NewReviewJob(licences Licences, notifier notify.Sender, opts ...Option) *ReviewJob {
	return &ReviewJob{base: newBase(ReviewJobName, opts), licences: licences, notifier: notifier}
}

type comCases struct {
	com   models.Staff
	cases []notify.Case
}

func (j *ReviewJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	pending, err := j.licences.List(ctx, store.Filter{
		Statuses:      []models.Status{models.StatusActive},
		ReviewPending: true,
	})
	if err != nil {
		return res, err
	}

	byEmail := make(map[string]*comCases)
	for _, l := range pending {
		if !l.IsReviewNeeded() {
			continue
		}
		res.Selected++
		com, err := l.Com()
		if err != nil || com.Email == "" {
			j.logger.WarnContext(ctx, "licence needing review has no community offender manager email", "licence_id", l.ID)
			res.add("no_recipient", 1)
			continue
		}
		key := strings.ToLower(com.Email)
		g, ok := byEmail[key]
		if !ok {
			g = &comCases{com: com}
			byEmail[key] = g
		}
		g.cases = append(g.cases, caseFor(l))
	}

	for _, key := range slices.Sorted(maps.Keys(byEmail)) {
		g := byEmail[key]
		err := j.notifier.SendReviewReminder(ctx, notify.Recipient{Email: g.com.Email, Name: g.com.FullName()}, g.cases)
		j.metrics.IncNotification(notify.TemplateReviewReminder, err)
		if err != nil {
			j.logger.WarnContext(ctx, "failed to send review reminder",
				"to", privacy.MaskEmail(g.com.Email),
				"cases", len(g.cases),
				"error", err,
			)
			res.add("email_failed", len(g.cases))
			continue
		}
		res.add("emailed", len(g.cases))
	}
	return res, nil
}
