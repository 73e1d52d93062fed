// Package models holds the case view produced by the caseload engine and
// the pure rules used to derive it.
package models

import (
	"cloud.google.com/go/civil"

	licence "licences/internal/licence/models"
)

// Release date labels shown alongside CaseView.ReleaseDate.
const (
	LabelConfirmedRelease = "Confirmed release date"
	LabelCRD              = "CRD"
	LabelPostRecall       = "Post-recall release date (PRRD)"
	LabelHDCAD            = "HDCAD"
)

// Practitioner is the probation practitioner managing the case.
type Practitioner struct {
	StaffIdentifier int64  `json:"staffIdentifier,omitempty"`
	StaffCode       string `json:"staffCode,omitempty"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Unallocated     bool   `json:"unallocated"`
}

// UnallocatedName is shown when probation has no practitioner assigned.
const UnallocatedName = "Not allocated"

// CaseView is the resolved state of one offender's case. It is rebuilt on
// every query and never persisted.
type CaseView struct {
	NomsID     string `json:"nomsId"`
	CRN        string `json:"crn,omitempty"`
	BookingID  int64  `json:"bookingId,omitempty"`
	Name       string `json:"name"`
	PrisonCode string `json:"prisonCode,omitempty"`

	LicenceID     *int64           `json:"licenceId,omitempty"`
	LicenceKind   licence.Kind     `json:"kind"`
	LicenceType   licence.TypeCode `json:"licenceType"`
	LicenceStatus licence.Status   `json:"licenceStatus"`

	ReleaseDate      *civil.Date `json:"releaseDate,omitempty"`
	ReleaseDateLabel string      `json:"releaseDateLabel,omitempty"`
	LicenceStartDate *civil.Date `json:"licenceStartDate,omitempty"`
	HardStopDate     *civil.Date `json:"hardStopDate,omitempty"`

	IsReviewNeeded bool         `json:"isReviewNeeded"`
	Practitioner   Practitioner `json:"probationPractitioner"`

	// History lists the ids of other relevant licences for the offender that
	// do not speak for the case.
	History []int64 `json:"history,omitempty"`
}

// HasLicence reports whether the view is backed by a persisted licence.
func (v CaseView) HasLicence() bool { return v.LicenceID != nil }
