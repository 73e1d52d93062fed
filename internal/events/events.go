// Package events defines the domain events published when a licence changes
// state in a way other services care about.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"licences/internal/licence/models"
	"licences/pkg/platform/outbox"
)

// Type is the fully qualified domain event type.
type Type string

const (
	LicenceActivated   Type = "create-and-vary-a-licence.licence.activated"
	LicenceInactivated Type = "create-and-vary-a-licence.licence.inactivated"
)

// AggregateType is the outbox aggregate for licence events.
const AggregateType = "licence"

// DomainEvent is the message body relayed to the domain event topic.
type DomainEvent struct {
	ID                    uuid.UUID             `json:"id"`
	EventType             Type                  `json:"eventType"`
	Version               int                   `json:"version"`
	Description           string                `json:"description"`
	OccurredAt            time.Time             `json:"occurredAt"`
	AdditionalInformation AdditionalInformation `json:"additionalInformation"`
	PersonReference       PersonReference       `json:"personReference"`
}

type AdditionalInformation struct {
	LicenceID string `json:"licenceId"`
}

type PersonReference struct {
	Identifiers []Identifier `json:"identifiers"`
}

type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ForLicence builds the event describing l after the change.
func ForLicence(t Type, l models.Licence, at time.Time) DomainEvent {
	var ids []Identifier
	if l.Offender.CRN != "" {
		ids = append(ids, Identifier{Type: "CRN", Value: l.Offender.CRN})
	}
	if l.Offender.NomsID != "" {
		ids = append(ids, Identifier{Type: "NOMS", Value: l.Offender.NomsID})
	}
	desc := "Licence activated for " + l.Offender.NomsID
	if t == LicenceInactivated {
		desc = "Licence inactivated for " + l.Offender.NomsID
	}
	return DomainEvent{
		ID:                    uuid.New(),
		EventType:             t,
		Version:               1,
		Description:           desc,
		OccurredAt:            at,
		AdditionalInformation: AdditionalInformation{LicenceID: strconv.FormatInt(l.ID, 10)},
		PersonReference:       PersonReference{Identifiers: ids},
	}
}

// OutboxPublisher writes domain events to the transactional outbox. The
// outbox worker relays them once the surrounding transaction commits.
type OutboxPublisher struct {
	store outbox.Store
}

func NewOutboxPublisher(store outbox.Store) *OutboxPublisher {
	return &OutboxPublisher{store: store}
}

func (p *OutboxPublisher) Publish(ctx context.Context, e DomainEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal domain event: %w", err)
	}
	entry := outbox.NewEntry(AggregateType, e.AdditionalInformation.LicenceID, string(e.EventType), payload, e.OccurredAt)
	entry.ID = e.ID
	if err := p.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append domain event to outbox: %w", err)
	}
	return nil
}
