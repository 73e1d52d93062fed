package models

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"

	dErrors "licences/pkg/domain-errors"
)

// Base holds the attributes shared by every licence kind.
type Base struct {
	ID             int64
	TypeCode       TypeCode
	Version        string // policy version the conditions were drawn from
	LicenceVersion string // "1.0", "1.1" for edits, "2.0" for variations
	RowVersion     int64

	Offender  Offender
	Dates     SentenceDates
	Prison    Prison
	Probation ProbationTeam

	Appointment Appointment

	DateCreated          *time.Time
	DateLastUpdated      *time.Time
	UpdatedByUsername    string
	SubmittedDate        *time.Time
	ApprovedDate         *time.Time
	ApprovedByUsername   string
	ApprovedByName       string
	SupersededDate       *time.Time
	LicenceActivatedDate *time.Time

	CreatedBy      *Staff
	SubmittedBy    *Staff
	ResponsibleCom *Staff

	StandardConditions   []StandardCondition
	AdditionalConditions []AdditionalCondition
	BespokeConditions    []BespokeCondition

	VersionOfID *int64
}

type Offender struct {
	NomsID      string
	BookingID   int64
	CRN         string
	PNC         string
	CRO         string
	Forename    string
	MiddleNames string
	Surname     string
	DateOfBirth *civil.Date
}

// SentenceDates are the release and supervision dates copied from prison records.
type SentenceDates struct {
	ConditionalReleaseDate     *civil.Date
	ActualReleaseDate          *civil.Date
	SentenceStartDate          *civil.Date
	SentenceEndDate            *civil.Date
	LicenceStartDate           *civil.Date
	LicenceExpiryDate          *civil.Date
	TopupSupervisionStartDate  *civil.Date
	TopupSupervisionExpiryDate *civil.Date
	PostRecallReleaseDate      *civil.Date
}

func (d SentenceDates) clone() SentenceDates {
	return SentenceDates{
		ConditionalReleaseDate:     clonePtr(d.ConditionalReleaseDate),
		ActualReleaseDate:          clonePtr(d.ActualReleaseDate),
		SentenceStartDate:          clonePtr(d.SentenceStartDate),
		SentenceEndDate:            clonePtr(d.SentenceEndDate),
		LicenceStartDate:           clonePtr(d.LicenceStartDate),
		LicenceExpiryDate:          clonePtr(d.LicenceExpiryDate),
		TopupSupervisionStartDate:  clonePtr(d.TopupSupervisionStartDate),
		TopupSupervisionExpiryDate: clonePtr(d.TopupSupervisionExpiryDate),
		PostRecallReleaseDate:      clonePtr(d.PostRecallReleaseDate),
	}
}

type Prison struct {
	Code        string
	Description string
	Telephone   string
}

type ProbationTeam struct {
	AreaCode        string
	AreaDescription string
	PduCode         string
	PduDescription  string
	LauCode         string
	LauDescription  string
	TeamCode        string
	TeamDescription string
}

type Appointment struct {
	Person    string
	Time      *time.Time
	Address   string
	Telephone string
}

// Licence is one licence of any kind: the shared Base plus a kind payload.
// Status is only changed through the transition functions in this package.
type Licence struct {
	Base
	status  Status
	payload Payload
}

// Status returns the current lifecycle status.
func (l Licence) Status() Status { return l.status }

// Kind returns the licence kind, derived from its payload.
func (l Licence) Kind() Kind {
	if l.payload == nil {
		return ""
	}
	return l.payload.Kind()
}

// Payload returns a copy of the kind-specific fields.
func (l Licence) Payload() Payload {
	if l.payload == nil {
		return nil
	}
	return l.payload.clonePayload()
}

// Clone returns a deep copy that shares no mutable state with l.
func (l Licence) Clone() Licence {
	c := l
	c.Offender.DateOfBirth = clonePtr(l.Offender.DateOfBirth)
	c.Dates = l.Dates.clone()
	c.Appointment.Time = clonePtr(l.Appointment.Time)
	c.DateCreated = clonePtr(l.DateCreated)
	c.DateLastUpdated = clonePtr(l.DateLastUpdated)
	c.SubmittedDate = clonePtr(l.SubmittedDate)
	c.ApprovedDate = clonePtr(l.ApprovedDate)
	c.SupersededDate = clonePtr(l.SupersededDate)
	c.LicenceActivatedDate = clonePtr(l.LicenceActivatedDate)
	c.CreatedBy = clonePtr(l.CreatedBy)
	c.SubmittedBy = clonePtr(l.SubmittedBy)
	c.ResponsibleCom = clonePtr(l.ResponsibleCom)
	c.StandardConditions = slicesClone(l.StandardConditions)
	c.BespokeConditions = slicesClone(l.BespokeConditions)
	c.AdditionalConditions = cloneAdditional(l.AdditionalConditions)
	c.VersionOfID = clonePtr(l.VersionOfID)
	if l.payload != nil {
		c.payload = l.payload.clonePayload()
	}
	return c
}

func cloneAdditional(in []AdditionalCondition) []AdditionalCondition {
	if in == nil {
		return nil
	}
	out := make([]AdditionalCondition, len(in))
	for i, c := range in {
		c.Data = slicesClone(c.Data)
		out[i] = c
	}
	return out
}

// Rehydrate rebuilds a licence from persisted state. Stores are the only
// callers; everything else goes through NewLicence and the transitions.
func Rehydrate(base Base, status Status, payload Payload) (Licence, error) {
	if !status.IsPersisted() {
		return Licence{}, dErrors.New(dErrors.CodeInvariantViolation, "stored licence has unknown status "+string(status))
	}
	if payload == nil {
		return Licence{}, dErrors.New(dErrors.CodeInvariantViolation, "stored licence has no kind")
	}
	l := Licence{Base: base, status: status, payload: payload}.Clone()
	sortConditions(&l)
	return l, nil
}

// Creator returns the staff member who created the licence.
func (l Licence) Creator() (Staff, error) {
	if l.CreatedBy == nil {
		return Staff{}, dErrors.New(dErrors.CodeInvariantViolation, "licence has no creator")
	}
	return *l.CreatedBy, nil
}

// Com returns the responsible community offender manager.
func (l Licence) Com() (Staff, error) {
	if l.ResponsibleCom == nil {
		return Staff{}, dErrors.New(dErrors.CodeInvariantViolation, "licence has no responsible community offender manager")
	}
	return *l.ResponsibleCom, nil
}

// VariationOfID returns the source licence id for variation kinds.
func (l Licence) VariationOfID() (int64, bool) {
	return variationOf(l.payload)
}

// ReviewDate returns the review date of hard-stop originated licences.
// SubstituteOfID returns the licence a hard-stop or time-served licence
// replaces, when it replaces one.
func (l Licence) SubstituteOfID() (int64, bool) {
	var id *int64
	switch p := l.payload.(type) {
	case HardStop:
		id = p.SubstituteOfID
	case TimeServed:
		id = p.SubstituteOfID
	}
	if id == nil {
		return 0, false
	}
	return *id, true
}

func (l Licence) ReviewDate() *time.Time {
	switch p := l.payload.(type) {
	case HardStop:
		return clonePtr(p.ReviewDate)
	case TimeServed:
		return clonePtr(p.ReviewDate)
	default:
		return nil
	}
}

// IsReviewNeeded is true for an active hard-stop originated licence that
// has not been reviewed yet.
func (l Licence) IsReviewNeeded() bool {
	return l.Kind().IsHardStopOriginated() && l.status == StatusActive && l.ReviewDate() == nil
}

// ExpiryDate is the date supervision ends: TUSED for licences with a PSS
// period when known, otherwise LED.
func (l Licence) ExpiryDate() *civil.Date {
	if l.TypeCode.HasPSSPeriod() && l.Dates.TopupSupervisionExpiryDate != nil {
		return l.Dates.TopupSupervisionExpiryDate
	}
	return l.Dates.LicenceExpiryDate
}

// InPSSPeriod reports whether today falls after LED and on or before TUSED.
func (l Licence) InPSSPeriod(today civil.Date) bool {
	led, tused := l.Dates.LicenceExpiryDate, l.Dates.TopupSupervisionExpiryDate
	if led == nil || tused == nil {
		return false
	}
	return today.After(*led) && !today.After(*tused)
}

// HasAPConditions reports whether any licence-period condition remains.
func (l Licence) HasAPConditions() bool {
	for _, c := range l.StandardConditions {
		if c.Type == ConditionTypeAP {
			return true
		}
	}
	for _, c := range l.AdditionalConditions {
		if c.Type == ConditionTypeAP {
			return true
		}
	}
	return len(l.BespokeConditions) > 0
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func slicesClone[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

func timePtr(t time.Time) *time.Time { return &t }
