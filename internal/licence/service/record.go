package service

import (
	"context"
	"fmt"

	"licences/internal/events"
	"licences/internal/licence/models"
	dErrors "licences/pkg/domain-errors"
	"licences/pkg/platform/audit"
	"licences/pkg/requestcontext"
)

// change describes the history written alongside a transition.
type change struct {
	event       models.EventType
	action      string // audit headline verb, e.g. "Activated"
	description string
	domain      events.Type
}

// save writes l and its history. l must have been loaded in the current
// transaction so its RowVersion is the one the store expects.
func (s *Service) save(ctx context.Context, l models.Licence, actor models.Actor, c change) (models.Licence, error) {
	saved, err := s.store.Update(ctx, l)
	if err != nil {
		return models.Licence{}, s.translate(err, l.ID)
	}
	if err := s.record(ctx, saved, actor, c); err != nil {
		return models.Licence{}, err
	}
	return saved, nil
}

// record appends the licence event, the audit event and, when the change
// is externally significant, the domain event.
func (s *Service) record(ctx context.Context, l models.Licence, actor models.Actor, c change) error {
	at := requestcontext.Now(ctx)
	description := c.description
	if description == "" {
		description = models.AuditSummary(c.action, l)
	}

	if _, err := s.events.Append(ctx, models.NewLicenceEvent(l, c.event, actor, description, at)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record licence event")
	}

	eventType := audit.EventTypeUser
	if actor.IsSystem() {
		eventType = audit.EventTypeSystem
	}
	id := l.ID
	if err := s.auditor.Record(ctx, audit.Event{
		LicenceID: &id,
		Timestamp: at,
		Username:  actor.Username,
		FullName:  actor.DisplayName(),
		EventType: eventType,
		Summary:   models.AuditSummary(c.action, l),
		Detail:    fmt.Sprintf("ID %d type %s status %s version %s", l.ID, l.Kind(), l.Status(), l.LicenceVersion),
		Changes:   models.AuditChanges(l),
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}

	if c.domain != "" {
		if err := s.publisher.Publish(ctx, events.ForLicence(c.domain, l, at)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish domain event")
		}
	}

	s.metrics.IncTransition(string(c.event), string(l.Kind()))
	s.logger.InfoContext(ctx, "licence changed",
		"licence_id", l.ID,
		"event", string(c.event),
		"status", string(l.Status()),
		"username", actor.Username,
	)
	return nil
}

// mutate loads a licence, applies fn and saves the result with its history,
// all in one transaction.
func (s *Service) mutate(ctx context.Context, id int64, actor models.Actor, c change,
	fn func(models.Licence, models.Actor) (models.Licence, error),
) (models.Licence, error) {
	var out models.Licence
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return s.translate(err, id)
		}
		next, err := fn(current, actor)
		if err != nil {
			return err
		}
		out, err = s.save(ctx, next, actor, c)
		return err
	})
	return out, err
}
