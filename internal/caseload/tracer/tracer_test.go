package tracer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	got, span := NewNoop().Start(ctx, SpanBuild, Int(AttrOffenders, 3))
	assert.Equal(t, ctx, got)
	require.NotNil(t, span)
	span.SetAttributes(Bool("k", true))
	span.AddEvent("e")
	span.End(errors.New("boom"))
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := NewOTel(WithOTelTracer(noop.NewTracerProvider().Tracer("test")))
	_, span := tr.Start(context.Background(), SpanPrisoners, String("k", "v"))
	span.End(nil)
}

func TestToOTel(t *testing.T) {
	got := toOTel([]Attribute{
		String("s", "v"),
		Int("i", 2),
		Int64("i64", 3),
		Bool("b", true),
		Duration("d", 1500*time.Millisecond),
		{Key: "ignored", Value: struct{}{}},
	})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("s", "v"),
		attribute.Int("i", 2),
		attribute.Int64("i64", 3),
		attribute.Bool("b", true),
		attribute.Int64("d", 1500),
	}, got)
	assert.Nil(t, toOTel(nil))
}
