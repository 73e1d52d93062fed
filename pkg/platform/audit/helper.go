package audit

import (
	"context"
	"log/slog"

	"licences/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes each audit event to the structured log and to the emitter.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger. Either argument may be nil.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Record logs the event and emits it. Emission failures are returned so the
// caller's transaction can roll back; the event is never half written.
func (l *Logger) Record(ctx context.Context, event Event) error {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	if l.textLogger != nil {
		args := []any{
			"event_type", string(event.EventType),
			"username", event.Username,
			"summary", event.Summary,
			"log_type", "audit",
		}
		if event.LicenceID != nil {
			args = append(args, "licence_id", *event.LicenceID)
		}
		if event.RequestID != "" {
			args = append(args, "request_id", event.RequestID)
		}
		l.textLogger.InfoContext(ctx, event.Summary, args...)
	}

	if l.emitter == nil {
		return nil
	}
	if err := l.emitter.Emit(ctx, event); err != nil {
		if l.textLogger != nil {
			l.textLogger.ErrorContext(ctx, "failed to emit audit event",
				"error", err,
				"summary", event.Summary,
			)
		}
		return err
	}
	return nil
}
