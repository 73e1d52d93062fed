package workers

import (
	"context"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/pkg/requestcontext"
)

const (
	ExpiryJobName = "expiry"
	expiryReason  = "Licence inactivated due to passing expiry date"
)

// ExpiryJob inactivates active licences past their expiry date: TUSED for
// licences with a PSS period when it is known, otherwise LED.
type ExpiryJob struct {
	base
	licences Licences
}

func NewExpiryJob(licences Licences, opts ...Option) *ExpiryJob {
	return &ExpiryJob{base: newBase(ExpiryJobName, opts), licences: licences}
}

func (j *ExpiryJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	today := requestcontext.Today(ctx)
	err := j.licences.RunInTx(ctx, func(ctx context.Context) error {
		active, err := j.licences.List(ctx, store.Filter{Statuses: []models.Status{models.StatusActive}})
		if err != nil {
			return err
		}
		var expired []models.Licence
		for _, l := range active {
			if exp := l.ExpiryDate(); exp != nil && exp.Before(today) {
				expired = append(expired, l)
			}
		}
		res.Selected = len(expired)
		done, err := j.licences.InactivateLicences(ctx, expired, expiryReason)
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
