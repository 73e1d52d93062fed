package workers

import (
	"context"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/pkg/requestcontext"
)

const ConditionsJobName = "remove-expired-conditions"

// ConditionsJob removes licence-period conditions from AP_PSS licences once
// the licence period has ended and only post-sentence supervision remains.
type ConditionsJob struct {
	base
	licences Licences
}

func NewConditionsJob(licences Licences, opts ...Option) *ConditionsJob {
	return &ConditionsJob{base: newBase(ConditionsJobName, opts), licences: licences}
}

func (j *ConditionsJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	today := requestcontext.Today(ctx)
	err := j.licences.RunInTx(ctx, func(ctx context.Context) error {
		inPSS, err := j.licences.List(ctx, store.Filter{
			Statuses:             append([]models.Status{models.StatusActive}, variationStatuses...),
			TypeCodes:            []models.TypeCode{models.TypeAPPSS},
			LicenceExpiryBefore:  &today,
			TopupExpiryOnOrAfter: &today,
		})
		if err != nil {
			return err
		}
		selected := filter(inPSS, func(l models.Licence) bool {
			return l.InPSSPeriod(today) && l.HasAPConditions()
		})
		res.Selected = len(selected)
		done, err := j.licences.RemoveExpiredConditions(ctx, selected)
		if err != nil {
			return err
		}
		res.add("conditions_removed", len(done))
		return nil
	})
	if err != nil {
		return Result{Selected: res.Selected}, err
	}
	return res, nil
}
