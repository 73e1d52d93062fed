package audit

import (
	"context"
	"time"
)

// EventType says whether a person or the system caused the audited change.
type EventType string

const (
	EventTypeUser   EventType = "USER_EVENT"
	EventTypeSystem EventType = "SYSTEM_EVENT"
)

// Event is an append-only audit record of a licence change. It is never
// updated or deleted once written.
type Event struct {
	ID        int64
	LicenceID *int64
	Timestamp time.Time
	Username  string
	FullName  string
	EventType EventType
	Summary   string
	Detail    string
	Changes   map[string]any
	RequestID string
}

// Store persists audit events. Implementations join the transaction carried
// by ctx when there is one.
type Store interface {
	Append(ctx context.Context, event Event) (int64, error)
	ListByLicence(ctx context.Context, licenceID int64) ([]Event, error)
}
