// Package tracer is the tracing abstraction used by the caseload engine.
// Production wiring uses the OpenTelemetry adapter; tests use NewNoop.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer starts spans.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a span key/value pair.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

func Int64(key string, value int64) Attribute { return Attribute{Key: key, Value: value} }

// Duration records d in milliseconds.
func Duration(key string, d time.Duration) Attribute {
	return Attribute{Key: key, Value: d.Milliseconds()}
}

// Span names.
const (
	SpanBuild      = "caseload.build"
	SpanLicences   = "caseload.licences"
	SpanPrisoners  = "caseload.prisoners"
	SpanHDC        = "caseload.hdc_statuses"
	SpanAllocation = "caseload.allocations"
)

// Attribute keys.
const (
	AttrOffenders = "caseload.offenders"
	AttrViews     = "caseload.views"
	AttrOmitted   = "caseload.omitted"
	AttrFound     = "caseload.found"
	AttrCacheHits = "cache.hits"
)
