package models

import (
	"fmt"
	"time"

	dErrors "licences/pkg/domain-errors"
)

// NewVariation starts a variation of an active licence. HDC licences are
// varied as HDC_VARIATION, everything else as VARIATION.
func NewVariation(src Licence, creator Staff, at time.Time) (Licence, error) {
	if src.status != StatusActive {
		return Licence{}, dErrors.New(dErrors.CodePreconditionFailed,
			fmt.Sprintf("only an active licence can be varied, licence %d is %s", src.ID, src.status))
	}
	if creator.Kind != StaffKindCom {
		return Licence{}, dErrors.New(dErrors.CodeValidation, "variations are created by community offender managers")
	}
	details := VariationDetails{VariationOfID: src.ID}

	var payload Payload
	switch p := src.payload.(type) {
	case HDC:
		payload = HDCVariation{VariationDetails: details, Curfew: p.Curfew.clone()}
	case HDCVariation:
		payload = HDCVariation{VariationDetails: details, Curfew: p.Curfew.clone()}
	default:
		payload = Variation{VariationDetails: details}
	}

	n := derive(src, creator, at)
	n.status = StatusVariationInProgress
	n.payload = payload
	n.LicenceVersion = nextMajor(src.LicenceVersion)
	return n, nil
}

// NewVersion starts an edited copy of a submitted or approved licence. The
// copy keeps the kind and points back at src through VersionOfID.
func NewVersion(src Licence, creator Staff, at time.Time) (Licence, error) {
	if src.Kind().IsVariation() {
		return Licence{}, dErrors.New(dErrors.CodeBadRequest, "variations are edited in place")
	}
	if src.status != StatusSubmitted && src.status != StatusApproved {
		return Licence{}, dErrors.New(dErrors.CodePreconditionFailed,
			fmt.Sprintf("only a submitted or approved licence can be edited, licence %d is %s", src.ID, src.status))
	}
	if err := checkCreator(src.Kind(), creator); err != nil {
		return Licence{}, err
	}
	n := derive(src, creator, at)
	n.status = StatusInProgress
	n.payload = src.payload.clonePayload()
	id := src.ID
	n.VersionOfID = &id
	n.LicenceVersion = nextMinor(src.LicenceVersion)
	return n, nil
}

// derive copies the shared attributes of src onto a fresh, unsaved licence.
func derive(src Licence, creator Staff, at time.Time) Licence {
	n := src.Clone()
	n.ID = 0
	n.RowVersion = 0
	n.DateCreated = timePtr(at)
	n.DateLastUpdated = timePtr(at)
	n.UpdatedByUsername = creator.Username
	n.CreatedBy = &creator
	n.SubmittedBy = nil
	n.SubmittedDate = nil
	n.ApprovedDate = nil
	n.ApprovedByUsername = ""
	n.ApprovedByName = ""
	n.SupersededDate = nil
	n.LicenceActivatedDate = nil
	n.VersionOfID = nil
	for i := range n.StandardConditions {
		n.StandardConditions[i].ID = 0
	}
	for i := range n.AdditionalConditions {
		n.AdditionalConditions[i].ID = 0
		for j := range n.AdditionalConditions[i].Data {
			n.AdditionalConditions[i].Data[j].ID = 0
		}
	}
	for i := range n.BespokeConditions {
		n.BespokeConditions[i].ID = 0
	}
	return n
}

func parseVersion(v string) (int, int) {
	var major, minor int
	if _, err := fmt.Sscanf(v, "%d.%d", &major, &minor); err != nil {
		return 1, 0
	}
	return major, minor
}

func nextMajor(v string) string {
	major, _ := parseVersion(v)
	return fmt.Sprintf("%d.0", major+1)
}

func nextMinor(v string) string {
	major, minor := parseVersion(v)
	return fmt.Sprintf("%d.%d", major, minor+1)
}
