package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"licences/pkg/platform/outbox"
	txcontext "licences/pkg/platform/tx"
)

// Store implements outbox.Store using PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// New creates a new PostgreSQL outbox store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const maxBatch = 1000

type outboxRow struct {
	ID            uuid.UUID    `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   string       `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	CreatedAt     time.Time    `db:"created_at"`
	ProcessedAt   sql.NullTime `db:"processed_at"`
}

// Append adds a new entry to the outbox table.
func (s *Store) Append(ctx context.Context, entry *outbox.Entry) error {
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		entry.ID,
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		entry.Payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnprocessed returns up to limit entries that haven't been relayed.
// Uses FOR UPDATE SKIP LOCKED so concurrent relays do not block each other.
func (s *Store) FetchUnprocessed(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	limit = min(limit, maxBatch)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, processed_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	var rows []outboxRow
	if err := sqlx.SelectContext(ctx, txcontext.Executor(ctx, s.db), &rows, query, limit); err != nil {
		return nil, fmt.Errorf("fetch unprocessed entries: %w", err)
	}
	entries := make([]*outbox.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toOutboxEntry(row))
	}
	return entries, nil
}

// MarkProcessed marks an entry as relayed.
func (s *Store) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	query := `UPDATE outbox SET processed_at = $2 WHERE id = $1 AND processed_at IS NULL`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, id, processedAt)
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("outbox entry not found or already processed: %s", id)
	}
	return nil
}

// CountPending returns the number of entries not yet relayed.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, txcontext.Executor(ctx, s.db), &count,
		`SELECT COUNT(*) FROM outbox WHERE processed_at IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

// DeleteProcessedBefore removes relayed entries older than before.
func (s *Store) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM outbox WHERE processed_at IS NOT NULL AND processed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete processed entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func toOutboxEntry(row outboxRow) *outbox.Entry {
	entry := &outbox.Entry{
		ID:            row.ID,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		EventType:     row.EventType,
		Payload:       row.Payload,
		CreatedAt:     row.CreatedAt,
	}
	if row.ProcessedAt.Valid {
		t := row.ProcessedAt.Time
		entry.ProcessedAt = &t
	}
	return entry
}
