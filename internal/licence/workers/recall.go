package workers

import (
	"context"
	"fmt"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/internal/upstream"
)

const (
	RecallJobName = "inactivate-recalled"
	recallReason  = "Licence automatically inactivated as the offender was recalled"
)

// RecallJob inactivates active and varied licences for offenders who have
// been recalled. A recall only counts when the prisoner's PRRD is strictly
// after the licence CRD; an earlier or equal PRRD is treated as already
// reconciled. PRRD licences are themselves post-recall and are left alone.
type RecallJob struct {
	base
	licences Licences
	search   PrisonerSearch
}

func NewRecallJob(licences Licences, search PrisonerSearch, opts ...Option) *RecallJob {
	return &RecallJob{base: newBase(RecallJobName, opts), licences: licences, search: search}
}

func (j *RecallJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	err := j.licences.RunInTx(ctx, func(ctx context.Context) error {
		candidates, err := j.licences.List(ctx, store.Filter{
			Statuses: append([]models.Status{models.StatusActive}, variationStatuses...),
		})
		if err != nil {
			return err
		}
		candidates = filter(candidates, func(l models.Licence) bool {
			return l.Kind() != models.KindPRRD && l.Dates.ConditionalReleaseDate != nil
		})
		if len(candidates) == 0 {
			return nil
		}

		prisoners, err := j.search.SearchByNomsIDs(ctx, nomsIDs(candidates))
		if err != nil {
			return fmt.Errorf("search prisoners: %w", err)
		}
		byNoms := make(map[string]upstream.Prisoner, len(prisoners))
		for _, p := range prisoners {
			byNoms[p.PrisonerNumber] = p
		}

		var recalled []models.Licence
		for _, l := range candidates {
			p, ok := byNoms[l.Offender.NomsID]
			if !ok {
				j.logger.DebugContext(ctx, "prisoner not found, skipping", "licence_id", l.ID)
				continue
			}
			if isRecalled(p, l) {
				recalled = append(recalled, l)
			}
		}
		res.Selected = len(recalled)
		done, err := j.licences.InactivateLicences(ctx, recalled, recallReason)
		if err != nil {
			return err
		}
		res.add("inactivated", len(done))
		return nil
	})
	if err != nil {
		return Result{Selected: res.Selected}, err
	}
	return res, nil
}

func isRecalled(p upstream.Prisoner, l models.Licence) bool {
	return p.Recall && p.PostRecallReleaseDate != nil &&
		p.PostRecallReleaseDate.After(*l.Dates.ConditionalReleaseDate)
}

func filter(ls []models.Licence, keep func(models.Licence) bool) []models.Licence {
	out := ls[:0:0]
	for _, l := range ls {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
