package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, Brokers(" a:9092, ,b:9092 "))
	assert.Nil(t, Brokers(""))
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}

func TestNoopProducerKeepsMessagesPending(t *testing.T) {
	err := NewNoopProducer(nil).Produce(context.Background(), &Message{Topic: "licences.domain.events"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "licences.domain.events")
}
