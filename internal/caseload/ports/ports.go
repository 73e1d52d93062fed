// Package ports declares the collaborators the caseload engine reads from.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"cloud.google.com/go/civil"

	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/internal/upstream"
)

// LicenceRepository reads persisted licences.
type LicenceRepository interface {
	List(ctx context.Context, f store.Filter) ([]models.Licence, error)
}

// PrisonerSearch reads prisoner records. Unknown prison numbers are absent
// from the result rather than an error.
type PrisonerSearch interface {
	SearchByNomsIDs(ctx context.Context, nomsIDs []string) ([]upstream.Prisoner, error)
	SearchByReleaseDate(ctx context.Context, prisonCodes []string, from, to civil.Date) ([]upstream.Prisoner, error)
}

// HDCStatuses reads HDC decisions by booking.
type HDCStatuses interface {
	HDCStatuses(ctx context.Context, bookingIDs []int64) ([]upstream.HDCStatus, error)
}

// Probation reads case allocations.
type Probation interface {
	ManagedOffendersForStaff(ctx context.Context, staffIdentifier int64) ([]upstream.ManagedOffender, error)
	ManagedOffendersForTeams(ctx context.Context, teamCodes []string) ([]upstream.ManagedOffender, error)
	ManagedOffendersByNomsIDs(ctx context.Context, nomsIDs []string) ([]upstream.ManagedOffender, error)
}
