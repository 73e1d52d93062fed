package upstream

import (
	"context"
	"fmt"
)

// Delius reads probation case allocations.
type Delius struct {
	c *client
}

func NewDelius(baseURL string, opts ...Option) *Delius {
	return &Delius{c: newClient("delius", baseURL, opts...)}
}

// ManagedOffendersForStaff lists offenders allocated to a practitioner.
func (d *Delius) ManagedOffendersForStaff(ctx context.Context, staffIdentifier int64) ([]ManagedOffender, error) {
	var out []ManagedOffender
	if err := d.c.get(ctx, fmt.Sprintf("/staff/%d/caseload/managed-offenders", staffIdentifier), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ManagedOffendersForTeams lists offenders allocated to any of the teams.
func (d *Delius) ManagedOffendersForTeams(ctx context.Context, teamCodes []string) ([]ManagedOffender, error) {
	var out []ManagedOffender
	if err := d.c.post(ctx, "/teams/managed-offenders", teamCodes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ManagedOffendersByNomsIDs returns the allocation of each offender known to
// probation. Offenders without a probation record are absent.
func (d *Delius) ManagedOffendersByNomsIDs(ctx context.Context, nomsIDs []string) ([]ManagedOffender, error) {
	var out []ManagedOffender
	for _, batch := range chunks(nomsIDs, searchBatchSize) {
		var page []ManagedOffender
		if err := d.c.post(ctx, "/probation-case/responsible-community-manager", batch, &page); err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}
