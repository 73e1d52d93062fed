package models

import (
	"fmt"
	"slices"
	"strings"
)

// ConditionType says which supervision period a condition applies to.
type ConditionType string

const (
	ConditionTypeAP  ConditionType = "AP"
	ConditionTypePSS ConditionType = "PSS"
)

type StandardCondition struct {
	ID       int64
	Code     string
	Sequence int
	Text     string
	Type     ConditionType
}

type AdditionalCondition struct {
	ID           int64
	Code         string
	Version      string
	Category     string
	Sequence     int
	Text         string
	ExpandedText string
	Type         ConditionType
	Data         []AdditionalConditionData
}

// AdditionalConditionData is one captured input for an additional condition,
// ordered by Sequence within its condition.
type AdditionalConditionData struct {
	ID       int64
	Sequence int
	Field    string
	Value    string
}

// BespokeCondition is free text added by the practitioner. Bespoke conditions
// only apply to the licence period.
type BespokeCondition struct {
	ID       int64
	Sequence int
	Text     string
}

func sortConditions(l *Licence) {
	slices.SortStableFunc(l.StandardConditions, func(a, b StandardCondition) int { return a.Sequence - b.Sequence })
	slices.SortStableFunc(l.AdditionalConditions, func(a, b AdditionalCondition) int { return a.Sequence - b.Sequence })
	slices.SortStableFunc(l.BespokeConditions, func(a, b BespokeCondition) int { return a.Sequence - b.Sequence })
	for i := range l.AdditionalConditions {
		data := l.AdditionalConditions[i].Data
		slices.SortStableFunc(data, func(a, b AdditionalConditionData) int { return a.Sequence - b.Sequence })
	}
}

// validateSequences rejects duplicate or non-positive sequence numbers inside a group.
func validateSequences(group string, seqs []int) error {
	seen := make(map[int]struct{}, len(seqs))
	for _, seq := range seqs {
		if seq <= 0 {
			return fmt.Errorf("%s condition sequence must be positive, got %d", group, seq)
		}
		if _, dup := seen[seq]; dup {
			return fmt.Errorf("%s condition sequence %d is used more than once", group, seq)
		}
		seen[seq] = struct{}{}
	}
	return nil
}

// StandardConditionsFor returns the policy standard conditions for a licence type.
func StandardConditionsFor(t TypeCode) []StandardCondition {
	var out []StandardCondition
	if t.HasAPPeriod() {
		out = append(out, numbered(apStandardConditions, ConditionTypeAP)...)
	}
	if t.HasPSSPeriod() {
		out = append(out, numbered(pssStandardConditions, ConditionTypePSS)...)
	}
	return out
}

type policyCondition struct {
	code string
	text string
}

func numbered(conditions []policyCondition, t ConditionType) []StandardCondition {
	out := make([]StandardCondition, len(conditions))
	for i, c := range conditions {
		out[i] = StandardCondition{Code: c.code, Sequence: i + 1, Text: c.text, Type: t}
	}
	return out
}

var apStandardConditions = []policyCondition{
	{"goodBehaviour", "Be of good behaviour and not behave in a way which undermines the purpose of the licence period."},
	{"notBreakLaw", "Not commit any offence."},
	{"keepInTouch", "Keep in touch with the supervising officer in accordance with instructions given by the supervising officer."},
	{"receiveVisits", "Receive visits from the supervising officer in accordance with instructions given by the supervising officer."},
	{"residence", "Reside permanently at an address approved by the supervising officer and obtain the prior permission of the supervising officer for any stay of one or more nights at a different address."},
	{"noWorkUnlessApproved", "Not undertake work, or a particular type of work, unless it is approved by the supervising officer and notify the supervising officer in advance of any proposal to undertake work or a particular type of work."},
	{"noTravelOutsideUk", "Not travel outside the United Kingdom, the Channel Islands or the Isle of Man except with the prior permission of the supervising officer or for the purposes of immigration deportation or removal."},
	{"tellOfficerNameChange", "Tell the supervising officer if you use a name which is different to the name or names which appear on your licence."},
	{"tellOfficerContactChange", "Tell the supervising officer if you change or add any contact details, including phone number or email."},
}

var pssStandardConditions = []policyCondition{
	{"pssGoodBehaviour", "Be of good behaviour and not behave in a way that undermines the rehabilitative purpose of the supervision period."},
	{"pssNotBreakLaw", "Not commit any offence."},
	{"pssKeepInTouch", "Keep in touch with your supervisor in accordance with instructions given by your supervisor."},
	{"pssReceiveVisits", "Receive visits from your supervisor in accordance with instructions given by your supervisor."},
	{"pssResidence", "Reside permanently at an address approved by your supervisor and notify your supervisor of any stay of one or more nights at a different address."},
	{"pssNoWorkUnlessApproved", "Not undertake work, or a particular type of work, unless it is approved by your supervisor."},
	{"pssNoTravelOutsideUk", "Not travel outside the United Kingdom, the Channel Islands or the Isle of Man except with the prior permission of your supervisor or in order to comply with a legal obligation."},
	{"pssAttendAppointments", "Attend appointments with a nominated individual in accordance with instructions given by your supervisor."},
}

// conditionSummary renders a short description used in audit detail.
func conditionSummary(l Licence) string {
	parts := []string{
		fmt.Sprintf("standard=%d", len(l.StandardConditions)),
		fmt.Sprintf("additional=%d", len(l.AdditionalConditions)),
		fmt.Sprintf("bespoke=%d", len(l.BespokeConditions)),
	}
	return strings.Join(parts, " ")
}
