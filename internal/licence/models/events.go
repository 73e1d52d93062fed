package models

import (
	"fmt"
	"time"
)

// EventType classifies a licence event.
type EventType string

const (
	EventCreated            EventType = "CREATED"
	EventSubmitted          EventType = "SUBMITTED"
	EventApproved           EventType = "APPROVED"
	EventActivated          EventType = "ACTIVATED"
	EventInactivated        EventType = "INACTIVE"
	EventSuperseded         EventType = "SUPERSEDED"
	EventTimedOut           EventType = "TIMED_OUT"
	EventDiscarded          EventType = "DISCARDED"
	EventStatusOverridden   EventType = "STATUS_OVERRIDDEN"
	EventVersionCreated     EventType = "VERSION_CREATED"
	EventVariationCreated   EventType = "VARIATION_CREATED"
	EventVariationSubmitted EventType = "VARIATION_SUBMITTED"
	EventVariationApproved  EventType = "VARIATION_APPROVED"
	EventVariationReferred  EventType = "VARIATION_REFERRED"
	EventReviewed           EventType = "HARD_STOP_REVIEWED"
	EventConditionsRemoved  EventType = "CONDITIONS_REMOVED"
	EventUpdated            EventType = "UPDATED"
)

// LicenceEvent is an append-only record of something that happened to a licence.
type LicenceEvent struct {
	ID          int64
	LicenceID   int64
	Type        EventType
	Username    string
	FirstName   string
	LastName    string
	Description string
	At          time.Time
}

// NewLicenceEvent builds the event for a transition applied to l.
func NewLicenceEvent(l Licence, t EventType, actor Actor, description string, at time.Time) LicenceEvent {
	return LicenceEvent{
		LicenceID:   l.ID,
		Type:        t,
		Username:    actor.Username,
		FirstName:   actor.FirstName,
		LastName:    actor.LastName,
		Description: description,
		At:          at,
	}
}

// AuditChanges is the structured detail recorded with every audit event.
func AuditChanges(l Licence) map[string]any {
	return map[string]any{
		"licenceId":  l.ID,
		"kind":       string(l.Kind()),
		"typeCode":   string(l.TypeCode),
		"status":     string(l.status),
		"version":    l.LicenceVersion,
		"conditions": conditionSummary(l),
	}
}

// AuditSummary describes the licence in audit headlines.
func AuditSummary(action string, l Licence) string {
	return fmt.Sprintf("%s licence for %s %s", action, l.Offender.Forename, l.Offender.Surname)
}
