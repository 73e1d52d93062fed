package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	audit "licences/pkg/platform/audit"
	txcontext "licences/pkg/platform/tx"
)

// Store implements audit.Store using PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type auditRow struct {
	ID        int64          `db:"id"`
	LicenceID sql.NullInt64  `db:"licence_id"`
	EventTime time.Time      `db:"event_time"`
	Username  string         `db:"username"`
	FullName  string         `db:"full_name"`
	EventType string         `db:"event_type"`
	Summary   string         `db:"summary"`
	Detail    string         `db:"detail"`
	Changes   []byte         `db:"changes"`
	RequestID sql.NullString `db:"request_id"`
}

// Append inserts an audit event, joining the transaction in ctx if any.
func (s *Store) Append(ctx context.Context, event audit.Event) (int64, error) {
	changes, err := json.Marshal(event.Changes)
	if err != nil {
		return 0, fmt.Errorf("encode audit changes: %w", err)
	}
	var licenceID sql.NullInt64
	if event.LicenceID != nil {
		licenceID = sql.NullInt64{Int64: *event.LicenceID, Valid: true}
	}

	query := `
		INSERT INTO audit_event (
			licence_id, event_time, username, full_name, event_type,
			summary, detail, changes, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id int64
	err = sqlx.GetContext(ctx, txcontext.Executor(ctx, s.db), &id, query,
		licenceID,
		event.Timestamp,
		event.Username,
		event.FullName,
		string(event.EventType),
		event.Summary,
		event.Detail,
		changes,
		sql.NullString{String: event.RequestID, Valid: event.RequestID != ""},
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit event: %w", err)
	}
	return id, nil
}

// ListByLicence returns a licence's audit events, oldest first.
func (s *Store) ListByLicence(ctx context.Context, licenceID int64) ([]audit.Event, error) {
	query := `
		SELECT id, licence_id, event_time, username, full_name, event_type,
		       summary, detail, changes, request_id
		FROM audit_event
		WHERE licence_id = $1
		ORDER BY event_time, id
	`
	var rows []auditRow
	if err := sqlx.SelectContext(ctx, txcontext.Executor(ctx, s.db), &rows, query, licenceID); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}

	events := make([]audit.Event, 0, len(rows))
	for _, r := range rows {
		e := audit.Event{
			ID:        r.ID,
			Timestamp: r.EventTime,
			Username:  r.Username,
			FullName:  r.FullName,
			EventType: audit.EventType(r.EventType),
			Summary:   r.Summary,
			Detail:    r.Detail,
			RequestID: r.RequestID.String,
		}
		if r.LicenceID.Valid {
			id := r.LicenceID.Int64
			e.LicenceID = &id
		}
		if len(r.Changes) > 0 {
			if err := json.Unmarshal(r.Changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("decode audit changes: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, nil
}
