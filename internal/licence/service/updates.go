package service

import (
	"context"
	"time"

	"licences/internal/licence/models"
	"licences/pkg/requestcontext"
)

// update runs a field-level transition that keeps the status unchanged.
func (s *Service) update(ctx context.Context, id int64, actor models.Actor, description string,
	fn func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error),
) (models.Licence, error) {
	c := change{event: models.EventUpdated, action: "Updated", description: description}
	return s.mutate(ctx, id, actor, c, func(l models.Licence, a models.Actor) (models.Licence, error) {
		return fn(l, a, requestcontext.Now(ctx))
	})
}

func (s *Service) UpdateConditions(ctx context.Context, id int64, u models.ConditionsUpdate, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated licence conditions",
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateConditions(l, u, a, at)
		})
}

// UpdateLicenceDates refreshes sentence dates. Nil fields keep their value.
func (s *Service) UpdateLicenceDates(ctx context.Context, id int64, d models.SentenceDates, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated licence dates",
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateLicenceDates(l, d, a, at)
		})
}

func (s *Service) UpdateOffenderDetails(ctx context.Context, id int64, u models.OffenderUpdate, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated offender details",
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateOffenderDetails(l, u, a, at)
		})
}

func (s *Service) UpdateProbationTeam(ctx context.Context, id int64, team models.ProbationTeam, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated probation team to "+team.TeamCode,
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateProbationTeam(l, team, a, at)
		})
}

func (s *Service) UpdateResponsibleCom(ctx context.Context, id int64, com models.Staff, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated responsible officer to "+com.FullName(),
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateResponsibleCom(l, com, a, at)
		})
}

// UpdateCurfewTimes replaces the curfew times of an HDC licence. A nil
// updatedBy is recorded as SYSTEM.
func (s *Service) UpdateCurfewTimes(ctx context.Context, id int64, times []models.CurfewTime, updatedBy *models.Staff) (models.Licence, error) {
	actor := models.SystemActor
	if updatedBy != nil {
		actor = updatedBy.Actor()
	}
	return s.update(ctx, id, actor, "Updated curfew times",
		func(l models.Licence, _ models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateCurfewTimes(l, times, updatedBy, at)
		})
}

func (s *Service) UpdateCurfewAddress(ctx context.Context, id int64, addr models.Address, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated curfew address",
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateCurfewAddress(l, addr, a, at)
		})
}

func (s *Service) CreateElectronicMonitoringProvider(ctx context.Context, id int64, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Created electronic monitoring provider",
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.CreateNewElectronicMonitoringProvider(l, a, at)
		})
}

func (s *Service) UpdateSpoDiscussion(ctx context.Context, id int64, value string, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated SPO discussion",
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateSpoDiscussion(l, value, a, at)
		})
}

func (s *Service) UpdateVloDiscussion(ctx context.Context, id int64, value string, actor models.Actor) (models.Licence, error) {
	return s.update(ctx, id, actor, "Updated VLO discussion",
		func(l models.Licence, a models.Actor, at time.Time) (models.Licence, error) {
			return models.UpdateVloDiscussion(l, value, a, at)
		})
}
