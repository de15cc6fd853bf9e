package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOrderChangedPublisher_PublishOrderChanged(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "a2e7f0c8-13b6-4f02-9c58-1f2d3e4a5b6c", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)

		var event ports.OrderChangedEvent
		require.NoError(t, json.Unmarshal(value, &event))
		assert.Equal(t, "ORD-20260830-A2E7", event.OrderNumber)
		assert.Equal(t, "out_for_delivery", event.Status)
		return nil
	})

	publisher := NewOrderChangedPublisher(producer, "order-changed", testLogger())

	err := publisher.PublishOrderChanged(t.Context(), ports.OrderChangedEvent{
		OrderID:     "a2e7f0c8-13b6-4f02-9c58-1f2d3e4a5b6c",
		OrderNumber: "ORD-20260830-A2E7",
		Status:      "out_for_delivery",
		CourierID:   "0b1c2d3e-4f50-6172-8394-a5b6c7d8e9f0",
		OccurredAt:  time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}

func TestOrderChangedPublisher_BrokerFailureSurfaces(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOrderChangedPublisher(producer, "order-changed", testLogger())

	err := publisher.PublishOrderChanged(t.Context(), ports.OrderChangedEvent{
		OrderID: "a2e7f0c8-13b6-4f02-9c58-1f2d3e4a5b6c",
		Status:  "delivered",
	})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}
