package models

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	dErrors "licences/pkg/domain-errors"
)

// ConditionsUpdate replaces whole condition groups. A nil group is left as is.
type ConditionsUpdate struct {
	Standard   *[]StandardCondition
	Additional *[]AdditionalCondition
	Bespoke    *[]BespokeCondition
}

// UpdateConditions replaces the given condition groups on an editable licence.
// Sequence numbers are kept exactly as supplied.
func UpdateConditions(l Licence, u ConditionsUpdate, actor Actor, at time.Time) (Licence, error) {
	if !l.status.IsEditable() {
		return Licence{}, dErrors.New(dErrors.CodePreconditionFailed,
			fmt.Sprintf("conditions cannot be changed on a %s licence", l.status))
	}
	n := l.Clone()
	if u.Standard != nil {
		seqs := make([]int, 0, len(*u.Standard))
		for _, c := range *u.Standard {
			seqs = append(seqs, c.Sequence)
		}
		if err := validateSequences("standard", seqs); err != nil {
			return Licence{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
		}
		n.StandardConditions = slicesClone(*u.Standard)
	}
	if u.Additional != nil {
		seqs := make([]int, 0, len(*u.Additional))
		for _, c := range *u.Additional {
			seqs = append(seqs, c.Sequence)
			dataSeqs := make([]int, 0, len(c.Data))
			for _, d := range c.Data {
				dataSeqs = append(dataSeqs, d.Sequence)
			}
			if err := validateSequences(c.Code+" data", dataSeqs); err != nil {
				return Licence{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
			}
		}
		if err := validateSequences("additional", seqs); err != nil {
			return Licence{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
		}
		n.AdditionalConditions = cloneAdditional(*u.Additional)
	}
	if u.Bespoke != nil {
		seqs := make([]int, 0, len(*u.Bespoke))
		for _, c := range *u.Bespoke {
			seqs = append(seqs, c.Sequence)
		}
		if err := validateSequences("bespoke", seqs); err != nil {
			return Licence{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
		}
		n.BespokeConditions = slicesClone(*u.Bespoke)
	}
	sortConditions(&n)
	touch(&n, actor, at)
	return n, nil
}

// RemoveAPConditions deletes every licence-period condition, leaving PSS
// conditions in place. It returns how many conditions were removed.
func RemoveAPConditions(l Licence, actor Actor, at time.Time) (Licence, int, error) {
	n := l.Clone()
	removed := 0

	standard := n.StandardConditions[:0]
	for _, c := range n.StandardConditions {
		if c.Type == ConditionTypeAP {
			removed++
			continue
		}
		standard = append(standard, c)
	}
	n.StandardConditions = standard

	additional := n.AdditionalConditions[:0]
	for _, c := range n.AdditionalConditions {
		if c.Type == ConditionTypeAP {
			removed++
			continue
		}
		additional = append(additional, c)
	}
	n.AdditionalConditions = additional

	removed += len(n.BespokeConditions)
	n.BespokeConditions = nil

	if removed > 0 {
		touch(&n, actor, at)
	}
	return n, removed, nil
}

// UpdateLicenceDates copies the non-nil dates in d onto the licence.
// Lifecycle stamps such as the approval date are never touched here.
func UpdateLicenceDates(l Licence, d SentenceDates, actor Actor, at time.Time) (Licence, error) {
	if l.status == StatusDiscarded {
		return Licence{}, dErrors.New(dErrors.CodePreconditionFailed, "dates cannot be changed on a discarded licence")
	}
	n := l.Clone()
	setDate(&n.Dates.ConditionalReleaseDate, d.ConditionalReleaseDate)
	setDate(&n.Dates.ActualReleaseDate, d.ActualReleaseDate)
	setDate(&n.Dates.SentenceStartDate, d.SentenceStartDate)
	setDate(&n.Dates.SentenceEndDate, d.SentenceEndDate)
	setDate(&n.Dates.LicenceStartDate, d.LicenceStartDate)
	setDate(&n.Dates.LicenceExpiryDate, d.LicenceExpiryDate)
	setDate(&n.Dates.TopupSupervisionStartDate, d.TopupSupervisionStartDate)
	setDate(&n.Dates.TopupSupervisionExpiryDate, d.TopupSupervisionExpiryDate)
	setDate(&n.Dates.PostRecallReleaseDate, d.PostRecallReleaseDate)
	touch(&n, actor, at)
	return n, nil
}

func setDate(dst **civil.Date, src *civil.Date) {
	if src != nil {
		*dst = clonePtr(src)
	}
}

// OffenderUpdate carries changed personal details; nil fields are unchanged.
type OffenderUpdate struct {
	Forename    *string
	MiddleNames *string
	Surname     *string
	DateOfBirth *civil.Date
}

func UpdateOffenderDetails(l Licence, u OffenderUpdate, actor Actor, at time.Time) (Licence, error) {
	n := l.Clone()
	if u.Forename != nil {
		n.Offender.Forename = *u.Forename
	}
	if u.MiddleNames != nil {
		n.Offender.MiddleNames = *u.MiddleNames
	}
	if u.Surname != nil {
		n.Offender.Surname = *u.Surname
	}
	setDate(&n.Offender.DateOfBirth, u.DateOfBirth)
	touch(&n, actor, at)
	return n, nil
}

// UpdateProbationTeam copies the non-empty descriptors of team onto the licence.
func UpdateProbationTeam(l Licence, team ProbationTeam, actor Actor, at time.Time) (Licence, error) {
	n := l.Clone()
	p := &n.Probation
	for dst, src := range map[*string]string{
		&p.AreaCode: team.AreaCode, &p.AreaDescription: team.AreaDescription,
		&p.PduCode: team.PduCode, &p.PduDescription: team.PduDescription,
		&p.LauCode: team.LauCode, &p.LauDescription: team.LauDescription,
		&p.TeamCode: team.TeamCode, &p.TeamDescription: team.TeamDescription,
	} {
		if src != "" {
			*dst = src
		}
	}
	touch(&n, actor, at)
	return n, nil
}

// UpdateResponsibleCom reassigns the licence to another community offender manager.
func UpdateResponsibleCom(l Licence, com Staff, actor Actor, at time.Time) (Licence, error) {
	if com.Kind != StaffKindCom {
		return Licence{}, dErrors.New(dErrors.CodeValidation, "responsible officer must be a community offender manager")
	}
	n := l.Clone()
	n.ResponsibleCom = &com
	touch(&n, actor, at)
	return n, nil
}

// UpdateCurfewTimes replaces all curfew times of an HDC licence. A nil
// updater is recorded as SYSTEM.
func UpdateCurfewTimes(l Licence, times []CurfewTime, updatedBy *Staff, at time.Time) (Licence, error) {
	seqs := make([]int, 0, len(times))
	for _, t := range times {
		seqs = append(seqs, t.Sequence)
	}
	if err := validateSequences("curfew", seqs); err != nil {
		return Licence{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	actor := SystemActor
	if updatedBy != nil {
		actor = updatedBy.Actor()
	}
	return withCurfew(l, "update curfew times", actor, at, func(c *Curfew) {
		c.Times = slicesClone(times)
		sortCurfewTimes(c.Times)
		c.TimesUpdatedBy = actor.Username
	})
}

// UpdateCurfewAddress sets the curfew address of an HDC licence.
func UpdateCurfewAddress(l Licence, addr Address, actor Actor, at time.Time) (Licence, error) {
	return withCurfew(l, "update curfew address", actor, at, func(c *Curfew) {
		c.Address = &addr
	})
}

func withCurfew(l Licence, op string, actor Actor, at time.Time, fn func(*Curfew)) (Licence, error) {
	n := l.Clone()
	switch p := n.payload.(type) {
	case HDC:
		fn(&p.Curfew)
		n.payload = p
	case HDCVariation:
		fn(&p.Curfew)
		n.payload = p
	default:
		return Licence{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("cannot %s on a %s licence", op, l.Kind()))
	}
	touch(&n, actor, at)
	return n, nil
}

// CreateNewElectronicMonitoringProvider attaches an empty monitoring provider
// record to an HDC or PRRD licence. An existing record is kept.
func CreateNewElectronicMonitoringProvider(l Licence, actor Actor, at time.Time) (Licence, error) {
	n := l.Clone()
	switch p := n.payload.(type) {
	case HDC:
		if p.MonitoringProvider != nil {
			return n, nil
		}
		p.MonitoringProvider = &ElectronicMonitoringProvider{}
		n.payload = p
	case PRRD:
		if p.MonitoringProvider != nil {
			return n, nil
		}
		p.MonitoringProvider = &ElectronicMonitoringProvider{}
		n.payload = p
	default:
		return Licence{}, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("%s licences have no electronic monitoring provider", l.Kind()))
	}
	touch(&n, actor, at)
	return n, nil
}

// UpdateSpoDiscussion records whether the variation was discussed with a senior probation officer.
func UpdateSpoDiscussion(l Licence, value string, actor Actor, at time.Time) (Licence, error) {
	return withVariation(l, actor, at, func(v *VariationDetails) { v.SpoDiscussion = value })
}

// UpdateVloDiscussion records whether the variation was discussed with the victim liaison officer.
func UpdateVloDiscussion(l Licence, value string, actor Actor, at time.Time) (Licence, error) {
	return withVariation(l, actor, at, func(v *VariationDetails) { v.VloDiscussion = value })
}

func withVariation(l Licence, actor Actor, at time.Time, fn func(*VariationDetails)) (Licence, error) {
	if l.status != StatusVariationInProgress {
		return Licence{}, dErrors.New(dErrors.CodePreconditionFailed, "only an in-progress variation can be changed")
	}
	n := l.Clone()
	switch p := n.payload.(type) {
	case Variation:
		fn(&p.VariationDetails)
		n.payload = p
	case HDCVariation:
		fn(&p.VariationDetails)
		n.payload = p
	default:
		return Licence{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s licence is not a variation", l.Kind()))
	}
	touch(&n, actor, at)
	return n, nil
}

// MarkReviewed records the post-release review of a hard-stop originated licence.
func MarkReviewed(l Licence, actor Actor, at time.Time) (Licence, error) {
	n := l.Clone()
	switch p := n.payload.(type) {
	case HardStop:
		p.ReviewDate = timePtr(at)
		n.payload = p
	case TimeServed:
		p.ReviewDate = timePtr(at)
		n.payload = p
	default:
		return Licence{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s licences are not reviewed", l.Kind()))
	}
	touch(&n, actor, at)
	return n, nil
}

func sortCurfewTimes(times []CurfewTime) {
	slices.SortStableFunc(times, func(a, b CurfewTime) int { return a.Sequence - b.Sequence })
}
