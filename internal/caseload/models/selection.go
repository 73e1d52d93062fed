package models

import (
	"slices"

	licence "licences/internal/licence/models"
)

// RelevantLicences drops discarded, inactive and superseded licences.
func RelevantLicences(ls []licence.Licence) []licence.Licence {
	out := make([]licence.Licence, 0, len(ls))
	for _, l := range ls {
		if licence.IrrelevantStatuses.Contains(l.Status()) || l.SupersededDate != nil {
			continue
		}
		out = append(out, l)
	}
	return out
}

// statusRank orders statuses by authority: lower wins.
func statusRank(s licence.Status) int {
	switch s {
	case licence.StatusActive:
		return 0
	case licence.StatusApproved, licence.StatusVariationApproved:
		return 1
	default:
		return 2
	}
}

// SelectLicence picks the licence that speaks for an offender: ACTIVE over
// APPROVED over anything in progress, then the most recently created, then
// the highest id. The rest are returned as history in the same order. The
// result does not depend on the order of ls.
func SelectLicence(ls []licence.Licence) (licence.Licence, []licence.Licence, bool) {
	if len(ls) == 0 {
		return licence.Licence{}, nil, false
	}
	sorted := slices.Clone(ls)
	slices.SortFunc(sorted, compareAuthority)
	return sorted[0], sorted[1:], true
}

func compareAuthority(a, b licence.Licence) int {
	if ra, rb := statusRank(a.Status()), statusRank(b.Status()); ra != rb {
		return ra - rb
	}
	switch {
	case a.DateCreated != nil && b.DateCreated != nil && !a.DateCreated.Equal(*b.DateCreated):
		return b.DateCreated.Compare(*a.DateCreated)
	case a.DateCreated != nil && b.DateCreated == nil:
		return -1
	case a.DateCreated == nil && b.DateCreated != nil:
		return 1
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	default:
		return 0
	}
}
