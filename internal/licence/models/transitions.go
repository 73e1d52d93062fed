package models

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	dErrors "licences/pkg/domain-errors"
)

// Every function in this file is a pure transition: it returns a new licence
// and leaves its input untouched.

func transitionError(op string, from, to Status) error {
	te := &TransitionError{Operation: op, From: from, To: to}
	return dErrors.Wrap(te, dErrors.CodePreconditionFailed, te.Error())
}

// updateStatus is the single place a status is written.
func updateStatus(l Licence, to Status, actor Actor, at time.Time) Licence {
	n := l.Clone()
	n.status = to
	touch(&n, actor, at)
	return n
}

func touch(l *Licence, actor Actor, at time.Time) {
	l.DateLastUpdated = timePtr(at)
	l.UpdatedByUsername = actor.Username
}

func inProgressStatusFor(k Kind) (Status, Status) {
	if k.IsVariation() {
		return StatusVariationInProgress, StatusVariationSubmitted
	}
	return StatusInProgress, StatusSubmitted
}

// Submit moves an in-progress licence (or variation) to submitted.
func Submit(l Licence, by Staff, at time.Time) (Licence, error) {
	from, to := inProgressStatusFor(l.Kind())
	if l.status != from {
		return Licence{}, transitionError("submit", l.status, to)
	}
	if want := l.Kind().CreatorKind(); by.Kind != want {
		return Licence{}, dErrors.New(dErrors.CodeValidation,
			string(l.Kind())+" licences must be submitted by "+string(want)+" staff")
	}
	n := updateStatus(l, to, by.Actor(), at)
	n.SubmittedBy = &by
	n.SubmittedDate = timePtr(at)
	return n, nil
}

// Approve moves a submitted licence to approved.
func Approve(l Licence, approver Actor, at time.Time) (Licence, error) {
	if l.Kind().IsVariation() || l.status != StatusSubmitted {
		return Licence{}, transitionError("approve", l.status, StatusApproved)
	}
	n := updateStatus(l, StatusApproved, approver, at)
	n.ApprovedDate = timePtr(at)
	n.ApprovedByUsername = approver.Username
	n.ApprovedByName = approver.DisplayName()
	return n, nil
}

// Activate moves an approved licence or approved variation to active.
// Re-activating a licence already activated on the same day is a no-op.
func Activate(l Licence, actor Actor, at time.Time) (Licence, error) {
	if l.status == StatusActive && l.LicenceActivatedDate != nil &&
		civil.DateOf(l.LicenceActivatedDate.In(at.Location())) == civil.DateOf(at) {
		return l.Clone(), nil
	}
	if !CanTransition(l.status, StatusActive) {
		return Licence{}, transitionError("activate", l.status, StatusActive)
	}
	n := updateStatus(l, StatusActive, actor, at)
	n.LicenceActivatedDate = timePtr(at)
	return n, nil
}

// Deactivate moves a licence to inactive. A nil actor is recorded as SYSTEM.
// Deactivating an inactive licence returns it unchanged.
func Deactivate(l Licence, actor *Actor, at time.Time) (Licence, error) {
	if l.status == StatusInactive {
		return l.Clone(), nil
	}
	if !CanTransition(l.status, StatusInactive) {
		return Licence{}, transitionError("deactivate", l.status, StatusInactive)
	}
	return updateStatus(l, StatusInactive, ActorOrSystem(actor), at), nil
}

// Supersede deactivates a licence that has been replaced by a newer version
// or an activated variation, stamping the supersession date.
func Supersede(l Licence, actor *Actor, at time.Time) (Licence, error) {
	n, err := Deactivate(l, actor, at)
	if err != nil {
		return Licence{}, err
	}
	if n.SupersededDate == nil {
		n.SupersededDate = timePtr(at)
	}
	return n, nil
}

// TimeOut marks a licence that reached the hard-stop cut-off without being
// activated.
func TimeOut(l Licence, at time.Time) (Licence, error) {
	if !CanTransition(l.status, StatusTimedOut) {
		return Licence{}, transitionError("time out", l.status, StatusTimedOut)
	}
	return updateStatus(l, StatusTimedOut, SystemActor, at), nil
}

// Discard abandons an in-progress licence.
func Discard(l Licence, actor Actor, at time.Time) (Licence, error) {
	if !CanTransition(l.status, StatusDiscarded) {
		return Licence{}, transitionError("discard", l.status, StatusDiscarded)
	}
	return updateStatus(l, StatusDiscarded, actor, at), nil
}

// OverrideStatus sets any persisted status directly together with the date
// that status depends on. The reason is mandatory.
func OverrideStatus(l Licence, to Status, reason string, actor Actor, at time.Time) (Licence, error) {
	if strings.TrimSpace(reason) == "" {
		return Licence{}, dErrors.New(dErrors.CodeValidation, "a reason is required to override a licence status")
	}
	if !to.IsPersisted() {
		return Licence{}, dErrors.New(dErrors.CodeValidation, "cannot override to status "+string(to))
	}
	if to == l.status {
		return Licence{}, dErrors.New(dErrors.CodePreconditionFailed, "licence already has status "+string(to))
	}
	n := updateStatus(l, to, actor, at)
	switch to {
	case StatusSubmitted, StatusVariationSubmitted:
		n.SubmittedDate = timePtr(at)
	case StatusApproved, StatusVariationApproved:
		n.ApprovedDate = timePtr(at)
		n.ApprovedByUsername = actor.Username
		n.ApprovedByName = actor.DisplayName()
	case StatusActive:
		n.LicenceActivatedDate = timePtr(at)
	case StatusInactive:
		n.SupersededDate = timePtr(at)
	}
	return n, nil
}

// ReferVariation sends a submitted variation back, rejecting it.
func ReferVariation(l Licence, approver Actor, at time.Time) (Licence, error) {
	if !l.Kind().IsVariation() || l.status != StatusVariationSubmitted {
		return Licence{}, transitionError("refer variation", l.status, StatusVariationRejected)
	}
	n := updateStatus(l, StatusVariationRejected, approver, at)
	n.ApprovedByUsername = approver.Username
	n.ApprovedByName = approver.DisplayName()
	return n, nil
}

// ApproveVariation approves a submitted variation.
func ApproveVariation(l Licence, approver Actor, at time.Time) (Licence, error) {
	if !l.Kind().IsVariation() || l.status != StatusVariationSubmitted {
		return Licence{}, transitionError("approve variation", l.status, StatusVariationApproved)
	}
	n := updateStatus(l, StatusVariationApproved, approver, at)
	n.ApprovedDate = timePtr(at)
	n.ApprovedByUsername = approver.Username
	n.ApprovedByName = approver.DisplayName()
	return n, nil
}
