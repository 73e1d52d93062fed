package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licences/pkg/platform/sentinel"
)

var errBoom = errors.New("boom")

func fail(context.Context) error { return errBoom }
func ok(context.Context) error   { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Date(2024, 4, 29, 6, 0, 0, 0, time.UTC)
	var changes []State
	b := New("prison-api",
		WithFailureThreshold(2),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
		WithStateChange(func(_ string, _, to State) { changes = append(changes, to) }),
	)
	ctx := context.Background()

	require.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateClosed, b.State())
	require.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, b.State())

	err := b.Execute(ctx, ok)
	require.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	now = now.Add(time.Minute)
	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, changes)
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	now := time.Date(2024, 4, 29, 6, 0, 0, 0, time.UTC)
	b := New("delius", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, fail))
	now = now.Add(2 * time.Second)
	require.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Execute(ctx, ok), ErrOpen)
}

func TestBreakerIgnoresMissesAndCancellation(t *testing.T) {
	b := New("search", WithFailureThreshold(1))

	notFound := func(context.Context) error { return sentinel.ErrNotFound }
	require.ErrorIs(t, b.Execute(context.Background(), notFound), sentinel.ErrNotFound)
	assert.Equal(t, StateClosed, b.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() }), context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}
