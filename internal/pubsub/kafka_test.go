package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitDeliveryAcknowledged(t *testing.T) {
	ch := make(chan kafka.Event, 1)
	ch <- &kafka.Message{}

	require.NoError(t, waitDelivery(context.Background(), ch))
}

func TestWaitDeliveryBrokerDown(t *testing.T) {
	ch := make(chan kafka.Event, 1)
	ch <- &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Error: kafka.NewError(kafka.ErrAllBrokersDown, "all brokers down", false),
		},
	}

	err := waitDelivery(context.Background(), ch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
}

func TestWaitDeliveryContextExpires(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := waitDelivery(ctx, make(chan kafka.Event))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
}
