package models

import (
	"fmt"
	"time"

	dErrors "licences/pkg/domain-errors"
)

// PolicyVersion is the condition policy version stamped on new licences.
const PolicyVersion = "3.0"

// NewLicenceParams are the inputs for creating a licence of any kind.
type NewLicenceParams struct {
	Payload        Payload
	Offender       Offender
	Dates          SentenceDates
	Prison         Prison
	Probation      ProbationTeam
	CreatedBy      Staff
	ResponsibleCom Staff
	// TypeCode overrides the type derived from LED and TUSED when set.
	TypeCode TypeCode
	At       time.Time
}

// NewLicence builds a new, unsaved licence in its initial status.
func NewLicence(p NewLicenceParams) (Licence, error) {
	if p.Payload == nil {
		return Licence{}, dErrors.New(dErrors.CodeValidation, "licence kind is required")
	}
	kind := p.Payload.Kind()

	if err := checkCreator(kind, p.CreatedBy); err != nil {
		return Licence{}, err
	}
	if p.ResponsibleCom.Kind != StaffKindCom {
		return Licence{}, dErrors.New(dErrors.CodeValidation, "responsible officer must be a community offender manager")
	}
	if kind == KindPRRD && p.Dates.PostRecallReleaseDate == nil {
		return Licence{}, dErrors.New(dErrors.CodeValidation, "post recall release date is required for a PRRD licence")
	}
	if kind.IsVariation() {
		if id, _ := variationOf(p.Payload); id == 0 {
			return Licence{}, dErrors.New(dErrors.CodeValidation, "a variation must reference the licence it varies")
		}
	}

	typeCode := p.TypeCode
	if typeCode == "" {
		typeCode = DeriveTypeCode(p.Dates.LicenceExpiryDate, p.Dates.TopupSupervisionExpiryDate)
	}

	status := StatusInProgress
	licenceVersion := "1.0"
	if kind.IsVariation() {
		status = StatusVariationInProgress
		licenceVersion = "2.0"
	}

	creator := p.CreatedBy
	com := p.ResponsibleCom
	l := Licence{
		Base: Base{
			TypeCode:           typeCode,
			Version:            PolicyVersion,
			LicenceVersion:     licenceVersion,
			Offender:           p.Offender,
			Dates:              p.Dates,
			Prison:             p.Prison,
			Probation:          p.Probation,
			DateCreated:        timePtr(p.At),
			DateLastUpdated:    timePtr(p.At),
			UpdatedByUsername:  creator.Username,
			CreatedBy:          &creator,
			ResponsibleCom:     &com,
			StandardConditions: StandardConditionsFor(typeCode),
		},
		status:  status,
		payload: p.Payload,
	}
	return l.Clone(), nil
}

func checkCreator(kind Kind, s Staff) error {
	if s.Username == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "licence has no creator")
	}
	if want := kind.CreatorKind(); s.Kind != want {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s licences are created and submitted by %s staff, not %s", kind, want, s.Kind))
	}
	return nil
}

func variationOf(p Payload) (int64, bool) {
	switch v := p.(type) {
	case Variation:
		return v.VariationOfID, true
	case HDCVariation:
		return v.VariationOfID, true
	default:
		return 0, false
	}
}
