package workers

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
)

const (
	IneligibleHDCJobName = "deactivate-ineligible-hdc"
	ineligibleHDCReason  = "Licence automatically deactivated as the offender is no longer eligible for HDC release"
)

// IneligibleHDCJob inactivates draft HDC licences whose booking has been
// refused HDC, failed the eligibility checks, or had its curfew made inactive.
type IneligibleHDCJob struct {
	base
	licences Licences
	prison   PrisonAPI
}

func NewIneligibleHDCJob(licences Licences, prison PrisonAPI, opts ...Option) *IneligibleHDCJob {
	return &IneligibleHDCJob{base: newBase(IneligibleHDCJobName, opts), licences: licences, prison: prison}
}

func (j *IneligibleHDCJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	err := j.licences.RunInTx(ctx, func(ctx context.Context) error {
		drafts, err := j.licences.List(ctx, store.Filter{
			Kinds:    []models.Kind{models.KindHDC},
			Statuses: []models.Status{models.StatusInProgress, models.StatusSubmitted, models.StatusApproved},
		})
		if err != nil || len(drafts) == 0 {
			return err
		}
		statuses, err := j.prison.HDCStatuses(ctx, bookingIDs(drafts))
		if err != nil {
			return fmt.Errorf("fetch HDC statuses: %w", err)
		}
		ineligible := mapset.NewThreadUnsafeSet[int64]()
		for _, s := range statuses {
			if s.IsIneligible() {
				ineligible.Add(s.BookingID)
			}
		}
		var selected []models.Licence
		for _, l := range drafts {
			if ineligible.Contains(l.Offender.BookingID) {
				selected = append(selected, l)
			}
		}
		res.Selected = len(selected)
		done, err := j.licences.InactivateLicences(ctx, selected, ineligibleHDCReason)
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
