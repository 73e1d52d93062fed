package service

import (
	"context"
	"fmt"
	"time"

	"licences/internal/events"
	"licences/internal/licence/models"
	dErrors "licences/pkg/domain-errors"
	"licences/pkg/requestcontext"
	"licences/pkg/validation"
)

// CreateLicence validates and stores a new licence in its initial status.
// A variation must reference an existing licence; a hard-stop or time-served
// substitute must reference an existing CRD or PRRD licence.
func (s *Service) CreateLicence(ctx context.Context, p models.NewLicenceParams) (models.Licence, error) {
	if p.At.IsZero() {
		p.At = requestcontext.Now(ctx)
	}
	l, err := models.NewLicence(p)
	if err != nil {
		return models.Licence{}, err
	}

	var out models.Licence
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if srcID, ok := l.VariationOfID(); ok {
			if _, err := s.store.Get(ctx, srcID); err != nil {
				return s.translate(err, srcID)
			}
		}
		if subID, ok := l.SubstituteOfID(); ok {
			replaced, err := s.store.Get(ctx, subID)
			if err != nil {
				return s.translate(err, subID)
			}
			if k := replaced.Kind(); k != models.KindCRD && k != models.KindPRRD {
				return dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("%s licence can only substitute a CRD or PRRD licence, %d is %s", l.Kind(), subID, k))
			}
		}
		created, err := s.store.Create(ctx, l)
		if err != nil {
			return s.translate(err, 0)
		}
		out = created
		return s.record(ctx, created, p.CreatedBy.Actor(), change{event: models.EventCreated, action: "Created"})
	})
	return out, err
}

func (s *Service) Submit(ctx context.Context, id int64, by models.Staff) (models.Licence, error) {
	var out models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return s.translate(err, id)
		}
		next, err := models.Submit(current, by, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		c := change{event: models.EventSubmitted, action: "Submitted"}
		if next.Kind().IsVariation() {
			c.event = models.EventVariationSubmitted
		}
		out, err = s.save(ctx, next, by.Actor(), c)
		return err
	})
	return out, err
}

// Approve approves a submitted licence. When the licence is an edited
// version, the licence it was edited from is superseded.
func (s *Service) Approve(ctx context.Context, id int64, approver models.Actor) (models.Licence, error) {
	var out models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return s.translate(err, id)
		}
		now := requestcontext.Now(ctx)
		next, err := models.Approve(current, approver, now)
		if err != nil {
			return err
		}
		if out, err = s.save(ctx, next, approver, change{event: models.EventApproved, action: "Approved"}); err != nil {
			return err
		}
		if next.VersionOfID == nil {
			return nil
		}
		return s.supersede(ctx, *next.VersionOfID, approver,
			fmt.Sprintf("Licence superseded by approved version %s", next.LicenceVersion))
	})
	return out, err
}

func (s *Service) supersede(ctx context.Context, id int64, actor models.Actor, description string) error {
	prev, err := s.store.Get(ctx, id)
	if err != nil {
		return s.translate(err, id)
	}
	if prev.Status() == models.StatusInactive {
		return nil
	}
	next, err := models.Supersede(prev, &actor, requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	_, err = s.save(ctx, next, actor, change{
		event:       models.EventSuperseded,
		action:      "Superseded",
		description: description,
	})
	return err
}

// Activate activates an approved licence or approved variation. Activating
// a variation inactivates the licence it varies.
func (s *Service) Activate(ctx context.Context, id int64, actor models.Actor) (models.Licence, error) {
	var out models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return s.translate(err, id)
		}
		out, err = s.activate(ctx, current, actor)
		return err
	})
	return out, err
}

func (s *Service) activate(ctx context.Context, current models.Licence, actor models.Actor) (models.Licence, error) {
	next, err := models.Activate(current, actor, requestcontext.Now(ctx))
	if err != nil {
		return models.Licence{}, err
	}
	if current.Status() == models.StatusActive {
		return current, nil
	}
	saved, err := s.save(ctx, next, actor, change{
		event:  models.EventActivated,
		action: "Activated",
		domain: events.LicenceActivated,
	})
	if err != nil {
		return models.Licence{}, err
	}
	srcID, ok := saved.VariationOfID()
	if !ok {
		return saved, nil
	}
	src, err := s.store.Get(ctx, srcID)
	if err != nil {
		return models.Licence{}, s.translate(err, srcID)
	}
	if src.Status() == models.StatusInactive {
		return saved, nil
	}
	superseded, err := models.Supersede(src, &actor, requestcontext.Now(ctx))
	if err != nil {
		return models.Licence{}, err
	}
	if _, err := s.save(ctx, superseded, actor, change{
		event:       models.EventInactivated,
		action:      "Inactivated",
		description: fmt.Sprintf("Licence inactivated as variation %d was activated", saved.ID),
		domain:      events.LicenceInactivated,
	}); err != nil {
		return models.Licence{}, err
	}
	return saved, nil
}

// Deactivate inactivates a licence. A nil actor is recorded as SYSTEM.
// Deactivating an inactive licence is a no-op.
func (s *Service) Deactivate(ctx context.Context, id int64, actor *models.Actor, reason string) (models.Licence, error) {
	var out models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return s.translate(err, id)
		}
		out, err = s.deactivate(ctx, current, actor, reason)
		return err
	})
	return out, err
}

func (s *Service) deactivate(ctx context.Context, current models.Licence, actor *models.Actor, reason string) (models.Licence, error) {
	if current.Status() == models.StatusInactive {
		return current, nil
	}
	next, err := models.Deactivate(current, actor, requestcontext.Now(ctx))
	if err != nil {
		return models.Licence{}, err
	}
	return s.save(ctx, next, models.ActorOrSystem(actor), change{
		event:       models.EventInactivated,
		action:      "Inactivated",
		description: reason,
		domain:      events.LicenceInactivated,
	})
}

func (s *Service) Discard(ctx context.Context, id int64, actor models.Actor) (models.Licence, error) {
	return s.mutate(ctx, id, actor, change{event: models.EventDiscarded, action: "Discarded"},
		func(l models.Licence, a models.Actor) (models.Licence, error) {
			return models.Discard(l, a, requestcontext.Now(ctx))
		})
}

// OverrideStatusRequest is an administrative status change.
type OverrideStatusRequest struct {
	LicenceID int64         `validate:"required,gt=0"`
	Status    models.Status `validate:"required"`
	Reason    string        `validate:"required,notblank,max=1000"`
}

// OverrideStatus sets a status directly, bypassing the transition table.
// The reason is recorded as the event description.
func (s *Service) OverrideStatus(ctx context.Context, req OverrideStatusRequest, actor models.Actor) (models.Licence, error) {
	if err := validation.Validate(req); err != nil {
		return models.Licence{}, err
	}
	c := change{
		event:       models.EventStatusOverridden,
		action:      "Status overridden for",
		description: fmt.Sprintf("Licence status set to %s: %s", req.Status, req.Reason),
	}
	switch req.Status {
	case models.StatusActive:
		c.domain = events.LicenceActivated
	case models.StatusInactive:
		c.domain = events.LicenceInactivated
	}
	return s.mutate(ctx, req.LicenceID, actor, c, func(l models.Licence, a models.Actor) (models.Licence, error) {
		return models.OverrideStatus(l, req.Status, req.Reason, a, requestcontext.Now(ctx))
	})
}

// CreateVariation starts a variation of an active licence.
func (s *Service) CreateVariation(ctx context.Context, id int64, creator models.Staff) (models.Licence, error) {
	return s.derive(ctx, id, creator, models.NewVariation, models.EventVariationCreated, "Created variation of")
}

// EditLicence starts a new version of a submitted or approved licence.
func (s *Service) EditLicence(ctx context.Context, id int64, creator models.Staff) (models.Licence, error) {
	return s.derive(ctx, id, creator, models.NewVersion, models.EventVersionCreated, "Created new version of")
}

func (s *Service) derive(ctx context.Context, id int64, creator models.Staff,
	fn func(models.Licence, models.Staff, time.Time) (models.Licence, error),
	event models.EventType, action string,
) (models.Licence, error) {
	var out models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		src, err := s.store.Get(ctx, id)
		if err != nil {
			return s.translate(err, id)
		}
		n, err := fn(src, creator, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		created, err := s.store.Create(ctx, n)
		if err != nil {
			return s.translate(err, 0)
		}
		out = created
		return s.record(ctx, created, creator.Actor(), change{
			event:       event,
			action:      action,
			description: fmt.Sprintf("%s licence %d", action, src.ID),
		})
	})
	return out, err
}

func (s *Service) ReferVariation(ctx context.Context, id int64, approver models.Actor) (models.Licence, error) {
	return s.mutate(ctx, id, approver, change{event: models.EventVariationReferred, action: "Referred variation"},
		func(l models.Licence, a models.Actor) (models.Licence, error) {
			return models.ReferVariation(l, a, requestcontext.Now(ctx))
		})
}

func (s *Service) ApproveVariation(ctx context.Context, id int64, approver models.Actor) (models.Licence, error) {
	return s.mutate(ctx, id, approver, change{event: models.EventVariationApproved, action: "Approved variation"},
		func(l models.Licence, a models.Actor) (models.Licence, error) {
			return models.ApproveVariation(l, a, requestcontext.Now(ctx))
		})
}

// ReviewLicence records the post-release review of a hard-stop or time
// served licence.
func (s *Service) ReviewLicence(ctx context.Context, id int64, actor models.Actor) (models.Licence, error) {
	return s.mutate(ctx, id, actor, change{event: models.EventReviewed, action: "Reviewed"},
		func(l models.Licence, a models.Actor) (models.Licence, error) {
			if l.Status() != models.StatusActive {
				return models.Licence{}, dErrors.New(dErrors.CodePreconditionFailed,
					fmt.Sprintf("only an active licence can be reviewed, licence %d is %s", l.ID, l.Status()))
			}
			return models.MarkReviewed(l, a, requestcontext.Now(ctx))
		})
}
