package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "licences/pkg/platform/audit"
	"licences/pkg/platform/audit/store/memory"
)

type failingStore struct {
	err error
}

func (s *failingStore) Append(context.Context, audit.Event) (int64, error) {
	return 0, s.err
}

func (s *failingStore) ListByLicence(context.Context, int64) ([]audit.Event, error) {
	return nil, nil
}

func TestEmitStoresEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	id := int64(3)

	require.NoError(t, pub.Emit(context.Background(), audit.Event{LicenceID: &id, Summary: "Licence submitted"}))

	events, err := pub.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Licence submitted", events[0].Summary)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestSyncEmitReturnsStoreError(t *testing.T) {
	pub := NewPublisher(&failingStore{err: errors.New("db down")})
	assert.Error(t, pub.Emit(context.Background(), audit.Event{}))
}

func TestAsyncEmitDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	id := int64(1)

	for range 3 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{LicenceID: &id}))
	}
	pub.Close()

	assert.Len(t, store.All(), 3)
}
