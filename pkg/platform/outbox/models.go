package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a pending domain event in the outbox table. It is written in the
// same transaction as the licence change that caused it.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // "licence"
	AggregateID   string // licence id
	EventType     string // e.g. "create-and-vary-a-licence.licence.activated"
	Payload       []byte // JSON-encoded event body
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil until relayed to Kafka
}

// IsPending returns true if this entry has not been relayed yet.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates a new outbox entry with a generated UUID.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, createdAt time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     createdAt,
	}
}
