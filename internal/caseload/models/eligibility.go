package models

import (
	"cloud.google.com/go/civil"

	licence "licences/internal/licence/models"
	"licences/internal/upstream"
)

// Reason explains why an offender without a licence is left out of a caseload.
type Reason string

const (
	ReasonDead                  Reason = "dead"
	ReasonIndeterminateSentence Reason = "indeterminate_sentence"
	ReasonNoReleaseDate         Reason = "no_release_date"
	ReasonReleasedInCommunity   Reason = "released_in_community"
	ReasonHDCApproved           Reason = "hdc_approved"
	ReasonParoleEligible        Reason = "parole_eligibility_date_in_future"
	ReasonLegalStatus           Reason = "ineligible_legal_status"
)

// Release is the release date resolved for an offender without a licence.
type Release struct {
	Date  *civil.Date
	Label string
	// OutOfScopeRecall is set when a recall with a PRRD later than the CRD
	// has not been resolved yet.
	OutOfScopeRecall bool
}

// ResolveRelease applies the release date precedence. A recall only counts
// when the PRRD is strictly later than the CRD (or there is no CRD); a PRRD
// on or before the CRD is treated as already reconciled and the CRD is used.
// A confirmed release date never replaces the CRD here; it only moves the
// licence start date (releasedates.Service.LicenceStartDate).
func ResolveRelease(p upstream.Prisoner) Release {
	crd, prrd := p.ConditionalReleaseDate, p.PostRecallReleaseDate
	if p.Recall && prrd != nil && (crd == nil || prrd.After(*crd)) {
		return Release{Date: prrd, Label: LabelPostRecall, OutOfScopeRecall: true}
	}
	if crd != nil {
		return Release{Date: crd, Label: LabelCRD}
	}
	return Release{}
}

// LicenceType derives AP, PSS or AP_PSS from the prisoner's LED and TUSED.
func LicenceType(p upstream.Prisoner) licence.TypeCode {
	return licence.DeriveTypeCode(p.LicenceExpiryDate, p.TopupSupervisionExpiryDate)
}

// Ineligibility returns every reason the offender cannot be given a licence
// case, or nil when eligible. hdc may be nil when the booking has no HDC record.
func Ineligibility(p upstream.Prisoner, hdc *upstream.HDCStatus, today civil.Date) []Reason {
	var reasons []Reason
	if p.IsDead() {
		reasons = append(reasons, ReasonDead)
	} else if p.HasIneligibleLegalStatus() {
		reasons = append(reasons, ReasonLegalStatus)
	}
	if p.IndeterminateSentence {
		reasons = append(reasons, ReasonIndeterminateSentence)
	}
	rel := ResolveRelease(p)
	if rel.Date == nil {
		reasons = append(reasons, ReasonNoReleaseDate)
	} else if p.InCommunity() && rel.Date.Before(today) {
		reasons = append(reasons, ReasonReleasedInCommunity)
	}
	if p.ParoleEligibilityDate != nil && p.ParoleEligibilityDate.After(today) {
		reasons = append(reasons, ReasonParoleEligible)
	}
	if hdc != nil && hdc.IsApproved() {
		reasons = append(reasons, ReasonHDCApproved)
	}
	return reasons
}
