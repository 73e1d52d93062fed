package models

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Status is the lifecycle status of a licence. NOT_STARTED, TIMED_OUT and
// OOS_RECALL also appear on case views for offenders without a licence, but
// NOT_STARTED and OOS_RECALL are never persisted.
type Status string

const (
	StatusInProgress          Status = "IN_PROGRESS"
	StatusSubmitted           Status = "SUBMITTED"
	StatusApproved            Status = "APPROVED"
	StatusActive              Status = "ACTIVE"
	StatusInactive            Status = "INACTIVE"
	StatusTimedOut            Status = "TIMED_OUT"
	StatusDiscarded           Status = "DISCARDED"
	StatusVariationInProgress Status = "VARIATION_IN_PROGRESS"
	StatusVariationSubmitted  Status = "VARIATION_SUBMITTED"
	StatusVariationApproved   Status = "VARIATION_APPROVED"
	StatusVariationRejected   Status = "VARIATION_REJECTED"

	StatusNotStarted Status = "NOT_STARTED"
	StatusOOSRecall  Status = "OOS_RECALL"
)

var (
	persistedStatuses = mapset.NewThreadUnsafeSet(
		StatusInProgress, StatusSubmitted, StatusApproved, StatusActive, StatusInactive,
		StatusTimedOut, StatusDiscarded, StatusVariationInProgress, StatusVariationSubmitted,
		StatusVariationApproved, StatusVariationRejected,
	)
	terminalStatuses = mapset.NewThreadUnsafeSet(StatusInactive, StatusDiscarded, StatusVariationRejected)

	// IrrelevantStatuses are excluded when resolving which licence speaks for an offender.
	IrrelevantStatuses = mapset.NewThreadUnsafeSet(StatusDiscarded, StatusInactive)

	// VariationStatuses are the statuses a variation moves through before activation.
	VariationStatuses = mapset.NewThreadUnsafeSet(
		StatusVariationInProgress, StatusVariationSubmitted, StatusVariationApproved, StatusVariationRejected,
	)
)

// IsPersisted reports whether s may be stored on a licence record.
func (s Status) IsPersisted() bool { return persistedStatuses.Contains(s) }

// IsSynthetic reports whether s only exists on case views.
func (s Status) IsSynthetic() bool { return s == StatusNotStarted || s == StatusOOSRecall }

func (s Status) IsTerminal() bool { return terminalStatuses.Contains(s) }

func (s Status) IsVariation() bool { return VariationStatuses.Contains(s) }

// IsEditable reports whether conditions and curfew data may still be changed.
func (s Status) IsEditable() bool {
	return s == StatusInProgress || s == StatusVariationInProgress
}

// ParseStatus parses a persisted status code.
func ParseStatus(code string) (Status, error) {
	s := Status(code)
	if !s.IsPersisted() {
		return "", fmt.Errorf("unknown licence status %q", code)
	}
	return s, nil
}

// TransitionRule is one edge of the status table.
type TransitionRule struct {
	From Status
	To   Status
}

// Transitions lists every edge reachable through the named lifecycle
// operations. OverrideStatus is the only way around this table.
var Transitions = buildTransitions()

func buildTransitions() []TransitionRule {
	rules := []TransitionRule{
		{From: StatusInProgress, To: StatusSubmitted},
		{From: StatusInProgress, To: StatusDiscarded},
		{From: StatusInProgress, To: StatusTimedOut},
		{From: StatusSubmitted, To: StatusApproved},
		{From: StatusSubmitted, To: StatusTimedOut},
		{From: StatusApproved, To: StatusActive},
		{From: StatusApproved, To: StatusTimedOut},
		{From: StatusVariationInProgress, To: StatusVariationSubmitted},
		{From: StatusVariationSubmitted, To: StatusVariationApproved},
		{From: StatusVariationSubmitted, To: StatusVariationRejected},
		{From: StatusVariationApproved, To: StatusActive},
	}
	// Deactivation is allowed from everywhere except a discarded licence.
	for s := range persistedStatuses.Iter() {
		if s != StatusDiscarded && s != StatusInactive {
			rules = append(rules, TransitionRule{From: s, To: StatusInactive})
		}
	}
	return rules
}

// CanTransition reports whether from -> to is a table-defined edge.
func CanTransition(from, to Status) bool {
	for _, r := range Transitions {
		if r.From == from && r.To == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns all valid target statuses from the given status.
func AllowedTransitions(from Status) []Status {
	var allowed []Status
	for _, r := range Transitions {
		if r.From == from {
			allowed = append(allowed, r.To)
		}
	}
	return allowed
}

// TransitionError is returned (wrapped in a precondition_failed domain error)
// when an operation is attempted from a status that does not permit it.
type TransitionError struct {
	Operation string
	From      Status
	To        Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s licence: no transition from %s to %s", e.Operation, e.From, e.To)
}
