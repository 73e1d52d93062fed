package service

import (
	"context"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/pkg/requestcontext"
)

// The batch operations below are used by lifecycle jobs. They take licences
// the job has just selected inside its own transaction and fail the whole
// call on the first error, leaving rollback to the caller's transaction.

// List returns licences matching f.
func (s *Service) List(ctx context.Context, f store.Filter) ([]models.Licence, error) {
	ls, err := s.store.List(ctx, f)
	if err != nil {
		return nil, s.translate(err, 0)
	}
	return ls, nil
}

// InactivateLicences deactivates each licence as SYSTEM with reason as the
// event description. Already inactive licences are skipped.
func (s *Service) InactivateLicences(ctx context.Context, licences []models.Licence, reason string) ([]models.Licence, error) {
	var out []models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		out = make([]models.Licence, 0, len(licences))
		for _, l := range licences {
			if l.Status() == models.StatusInactive {
				continue
			}
			saved, err := s.deactivate(ctx, l, nil, reason)
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	return out, err
}

// TimeOutLicences moves each licence to TIMED_OUT.
func (s *Service) TimeOutLicences(ctx context.Context, licences []models.Licence, reason string) ([]models.Licence, error) {
	var out []models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		out = make([]models.Licence, 0, len(licences))
		now := requestcontext.Now(ctx)
		for _, l := range licences {
			next, err := models.TimeOut(l, now)
			if err != nil {
				return err
			}
			saved, err := s.save(ctx, next, models.SystemActor, change{
				event:       models.EventTimedOut,
				action:      "Timed out",
				description: reason,
			})
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	return out, err
}

// ActivateLicences activates each licence as SYSTEM.
func (s *Service) ActivateLicences(ctx context.Context, licences []models.Licence) ([]models.Licence, error) {
	var out []models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		out = make([]models.Licence, 0, len(licences))
		for _, l := range licences {
			saved, err := s.activate(ctx, l, models.SystemActor)
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	return out, err
}

// RemoveExpiredConditions strips AP conditions from licences now in their
// PSS-only period. Licences with nothing to remove are left untouched.
func (s *Service) RemoveExpiredConditions(ctx context.Context, licences []models.Licence) ([]models.Licence, error) {
	var out []models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		for _, l := range licences {
			next, removed, err := models.RemoveAPConditions(l, models.SystemActor, now)
			if err != nil {
				return err
			}
			if removed == 0 {
				continue
			}
			saved, err := s.save(ctx, next, models.SystemActor, change{
				event:       models.EventConditionsRemoved,
				action:      "Removed expired conditions from",
				description: "Licence-period conditions removed as the licence entered its PSS period",
			})
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	return out, err
}

func (s *Service) GetLicence(ctx context.Context, id int64) (models.Licence, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Licence{}, s.translate(err, id)
	}
	return l, nil
}

func (s *Service) ListEvents(ctx context.Context, id int64) ([]models.LicenceEvent, error) {
	if _, err := s.GetLicence(ctx, id); err != nil {
		return nil, err
	}
	evs, err := s.events.ListByLicence(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return evs, nil
}
