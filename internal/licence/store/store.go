// Package store persists licences and their event history.
//
// Error contract for every implementation:
//   - Get returns sentinel.ErrNotFound when the licence does not exist
//   - Update returns sentinel.ErrConflict when the stored RowVersion no longer
//     matches the one the caller read
//   - infrastructure failures are wrapped with context
package store

import (
	"slices"

	"cloud.google.com/go/civil"

	"licences/internal/licence/models"
)

// Filter selects licences. Empty fields do not constrain the result; set
// fields are ANDed together.
type Filter struct {
	IDs                 []int64
	Kinds               []models.Kind
	Statuses            []models.Status
	TypeCodes           []models.TypeCode
	NomsIDs             []string
	BookingIDs          []int64
	ComStaffIdentifiers []int64
	TeamCodes           []string
	PrisonCodes         []string
	VariationOfIDs      []int64

	// LicenceExpiryBefore keeps licences whose LED is strictly before the date.
	LicenceExpiryBefore *civil.Date
	// TopupExpiryOnOrAfter keeps licences whose TUSED is on or after the date.
	TopupExpiryOnOrAfter *civil.Date
	// ReviewPending keeps hard-stop originated licences with no review date.
	ReviewPending bool
}

// Matches applies the filter to one licence. The in-memory store uses it
// directly; the Postgres store expresses the same predicate in SQL.
func (f Filter) Matches(l models.Licence) bool {
	if !in(f.IDs, l.ID) || !in(f.Kinds, l.Kind()) || !in(f.Statuses, l.Status()) ||
		!in(f.TypeCodes, l.TypeCode) || !in(f.NomsIDs, l.Offender.NomsID) ||
		!in(f.BookingIDs, l.Offender.BookingID) || !in(f.TeamCodes, l.Probation.TeamCode) ||
		!in(f.PrisonCodes, l.Prison.Code) {
		return false
	}
	if len(f.ComStaffIdentifiers) > 0 {
		if l.ResponsibleCom == nil || !slices.Contains(f.ComStaffIdentifiers, l.ResponsibleCom.StaffIdentifier) {
			return false
		}
	}
	if len(f.VariationOfIDs) > 0 {
		id, ok := l.VariationOfID()
		if !ok || !slices.Contains(f.VariationOfIDs, id) {
			return false
		}
	}
	if f.LicenceExpiryBefore != nil {
		led := l.Dates.LicenceExpiryDate
		if led == nil || !led.Before(*f.LicenceExpiryBefore) {
			return false
		}
	}
	if f.TopupExpiryOnOrAfter != nil {
		tused := l.Dates.TopupSupervisionExpiryDate
		if tused == nil || tused.Before(*f.TopupExpiryOnOrAfter) {
			return false
		}
	}
	if f.ReviewPending {
		if !l.Kind().IsHardStopOriginated() || l.ReviewDate() != nil {
			return false
		}
	}
	return true
}

func in[T comparable](set []T, v T) bool {
	return len(set) == 0 || slices.Contains(set, v)
}
