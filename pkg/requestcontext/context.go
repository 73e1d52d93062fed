// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values shared by services, workers, and handlers.
//
// Workers pin the clock once per run so every licence in a batch is judged
// against the same instant:
//
//	ctx = requestcontext.WithTime(ctx, time.Now())
//	today := requestcontext.Today(ctx)
package requestcontext

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Location is the civil time zone used to turn instants into calendar dates.
// Release dates are recorded in UK local time.
var Location = loadLocation("Europe/London")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the pinned time from the context, or time.Now() when unset.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// Today returns the calendar date of Now(ctx) in Location.
func Today(ctx context.Context) civil.Date {
	return civil.DateOf(Now(ctx).In(Location))
}
