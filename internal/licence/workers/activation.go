package workers

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	mapset "github.com/deckarep/golang-set/v2"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/pkg/requestcontext"
)

const (
	ActivationJobName = "activation"
	hdcApprovedReason = "Licence inactivated as the offender has been approved for HDC release"
)

// ActivationJob activates approved licences on or after their release day.
// Bookings on an IS91 or extradition sentence use the CRD rather than the
// licence start date. A non-HDC licence whose booking has since been approved
// for HDC is inactivated instead.
type ActivationJob struct {
	base
	licences Licences
	prison   PrisonAPI
}

func NewActivationJob(licences Licences, prison PrisonAPI, opts ...Option) *ActivationJob {
	return &ActivationJob{
		base:     newBase(ActivationJobName, opts),
		licences: licences,
		prison:   prison,
	}
}

func (j *ActivationJob) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	today := requestcontext.Today(ctx)

	err := j.licences.RunInTx(ctx, func(ctx context.Context) error {
		approved, err := j.licences.List(ctx, store.Filter{Statuses: []models.Status{models.StatusApproved}})
		if err != nil {
			return err
		}
		if len(approved) == 0 {
			return nil
		}

		is91, err := j.prison.IS91Bookings(ctx, bookingIDs(approved))
		if err != nil {
			return fmt.Errorf("fetch IS91 bookings: %w", err)
		}
		is91Set := mapset.NewThreadUnsafeSet(is91...)

		var ready []models.Licence
		for _, l := range approved {
			if readyToActivate(l, is91Set.Contains(l.Offender.BookingID), today) {
				ready = append(ready, l)
			}
		}
		res.Selected = len(ready)
		if len(ready) == 0 {
			return nil
		}

		hdcApproved, err := j.hdcApprovedBookings(ctx, ready)
		if err != nil {
			return err
		}
		var activate, inactivate []models.Licence
		for _, l := range ready {
			if !l.Kind().IsHDC() && hdcApproved.Contains(l.Offender.BookingID) {
				inactivate = append(inactivate, l)
				continue
			}
			activate = append(activate, l)
		}

		activated, err := j.licences.ActivateLicences(ctx, activate)
		if err != nil {
			return err
		}
		inactivated, err := j.licences.InactivateLicences(ctx, inactivate, hdcApprovedReason)
		if err != nil {
			return err
		}
		res.add("activated", len(activated))
		res.add("inactivated", len(inactivated))
		return nil
	})
	if err != nil {
		return Result{Selected: res.Selected}, err
	}
	return res, nil
}

func (j *ActivationJob) hdcApprovedBookings(ctx context.Context, ls []models.Licence) (mapset.Set[int64], error) {
	statuses, err := j.prison.HDCStatuses(ctx, bookingIDs(ls))
	if err != nil {
		return nil, fmt.Errorf("fetch HDC statuses: %w", err)
	}
	approved := mapset.NewThreadUnsafeSet[int64]()
	for _, s := range statuses {
		if s.IsApproved() {
			approved.Add(s.BookingID)
		}
	}
	return approved, nil
}

// readyToActivate applies the release-day rule: the licence start date
// (falling back to ARD then CRD) for standard bookings, and the CRD (falling
// back to ARD) for IS91 and extradition bookings.
func readyToActivate(l models.Licence, is91 bool, today civil.Date) bool {
	d := l.Dates
	if is91 {
		return onOrBefore(firstDate(d.ConditionalReleaseDate, d.ActualReleaseDate), today)
	}
	if l.Kind() == models.KindPRRD {
		return onOrBefore(firstDate(d.LicenceStartDate, d.ActualReleaseDate, d.PostRecallReleaseDate), today)
	}
	return onOrBefore(firstDate(d.LicenceStartDate, d.ActualReleaseDate, d.ConditionalReleaseDate), today)
}
