// Package upstream holds the data contracts supplied by the prison,
// prisoner search and probation systems, and HTTP clients for them.
package upstream

import (
	"cloud.google.com/go/civil"
	mapset "github.com/deckarep/golang-set/v2"
)

// Legal statuses that make a prisoner ineligible for a licence.
const (
	LegalStatusDead                = "DEAD"
	LegalStatusImmigrationDetainee = "IMMIGRATION_DETAINEE"
	LegalStatusRemand              = "REMAND"
)

var ineligibleLegalStatuses = mapset.NewThreadUnsafeSet(
	LegalStatusDead, LegalStatusImmigrationDetainee, LegalStatusRemand,
)

// Prisoner is a prisoner search record.
type Prisoner struct {
	PrisonerNumber        string      `json:"prisonerNumber"`
	BookingID             int64       `json:"bookingId,string"`
	FirstName             string      `json:"firstName"`
	MiddleNames           string      `json:"middleNames,omitempty"`
	LastName              string      `json:"lastName"`
	DateOfBirth           *civil.Date `json:"dateOfBirth,omitempty"`
	Status                string      `json:"status"`
	PrisonID              string      `json:"prisonId"`
	PrisonName            string      `json:"prisonName,omitempty"`
	LegalStatus           string      `json:"legalStatus"`
	IndeterminateSentence bool        `json:"indeterminateSentence"`
	Recall                bool        `json:"recall"`
	CRN                   string      `json:"crn,omitempty"`

	ConditionalReleaseDate             *civil.Date `json:"conditionalReleaseDate,omitempty"`
	ConfirmedReleaseDate               *civil.Date `json:"confirmedReleaseDate,omitempty"`
	PostRecallReleaseDate              *civil.Date `json:"postRecallReleaseDate,omitempty"`
	SentenceStartDate                  *civil.Date `json:"sentenceStartDate,omitempty"`
	SentenceExpiryDate                 *civil.Date `json:"sentenceExpiryDate,omitempty"`
	LicenceExpiryDate                  *civil.Date `json:"licenceExpiryDate,omitempty"`
	TopupSupervisionStartDate          *civil.Date `json:"topupSupervisionStartDate,omitempty"`
	TopupSupervisionExpiryDate         *civil.Date `json:"topupSupervisionExpiryDate,omitempty"`
	HomeDetentionCurfewEligibilityDate *civil.Date `json:"homeDetentionCurfewEligibilityDate,omitempty"`
	HomeDetentionCurfewActualDate      *civil.Date `json:"homeDetentionCurfewActualDate,omitempty"`
	HomeDetentionCurfewEndDate         *civil.Date `json:"homeDetentionCurfewEndDate,omitempty"`
	ParoleEligibilityDate              *civil.Date `json:"paroleEligibilityDate,omitempty"`
}

// IsDead reports whether the prisoner record marks the prisoner as deceased.
func (p Prisoner) IsDead() bool { return p.LegalStatus == LegalStatusDead }

// HasIneligibleLegalStatus is true for dead, remand and immigration detainee records.
func (p Prisoner) HasIneligibleLegalStatus() bool {
	return ineligibleLegalStatuses.Contains(p.LegalStatus)
}

// InCommunity reports whether the prisoner has already been released.
func (p Prisoner) InCommunity() bool {
	return p.Status == "INACTIVE OUT" || p.Status == "ACTIVE OUT"
}

// Name returns "{first} {last}".
func (p Prisoner) Name() string {
	return p.FirstName + " " + p.LastName
}

// HDC approval statuses recorded against a booking.
const (
	HDCApproved = "APPROVED"
	HDCRejected = "REJECTED"
	HDCPending  = "PENDING"
	HDCOptedOut = "OPT_OUT"
)

// HDCStatus is the latest home detention curfew decision for a booking.
type HDCStatus struct {
	BookingID      int64  `json:"bookingId"`
	ApprovalStatus string `json:"approvalStatus,omitempty"`
	// Passed is the eligibility check outcome; nil until checks are done.
	Passed *bool `json:"passed,omitempty"`
	// CurfewActive is false once the curfew has been ended early.
	CurfewActive *bool `json:"curfewActive,omitempty"`
}

// IsApproved reports whether HDC release was approved.
func (h HDCStatus) IsApproved() bool { return h.ApprovalStatus == HDCApproved }

// IsIneligible is true when the booking can no longer be released on HDC:
// the decision was a refusal, the eligibility checks failed, or the curfew
// has been made inactive.
func (h HDCStatus) IsIneligible() bool {
	switch {
	case h.ApprovalStatus == HDCRejected || h.ApprovalStatus == HDCOptedOut:
		return true
	case h.Passed != nil && !*h.Passed:
		return true
	case h.CurfewActive != nil && !*h.CurfewActive:
		return true
	default:
		return false
	}
}

// StaffDetail is the probation practitioner managing an offender.
type StaffDetail struct {
	Code        string `json:"code"`
	Identifier  int64  `json:"staffIdentifier"`
	Forename    string `json:"forename"`
	Surname     string `json:"surname"`
	Email       string `json:"email,omitempty"`
	Unallocated bool   `json:"unallocated"`
}

// Name returns "{forename} {surname}".
func (s StaffDetail) Name() string {
	return s.Forename + " " + s.Surname
}

// ManagedOffender links an offender to the practitioner and team managing them.
type ManagedOffender struct {
	CRN      string      `json:"crn"`
	NomsID   string      `json:"nomisId,omitempty"`
	TeamCode string      `json:"teamCode"`
	Staff    StaffDetail `json:"staff"`
}
