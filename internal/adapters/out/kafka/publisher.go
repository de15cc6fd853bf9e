// Package kafka adapts the coordinator to the message bus. The publisher
// pushes order-changed integration events for downstream consumers; the
// consumer turns confirmed baskets arriving from the ordering side into
// checkout commands.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/IBM/sarama"
)

// NewSyncProducer creates a synchronous producer with delivery confirmation
// enabled. Integration events are low-volume; waiting for the broker ack is
// cheaper than losing a status change.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = 5 * time.Second
	return sarama.NewSyncProducer(brokers, config)
}

// OrderChangedPublisher implements ports.EventPublisher on top of a Kafka
// topic. Events are keyed by order ID so every consumer sees one order's
// transitions in order.
type OrderChangedPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewOrderChangedPublisher creates a publisher writing to the given topic.
func NewOrderChangedPublisher(
	producer sarama.SyncProducer,
	topic string,
	logger *slog.Logger,
) *OrderChangedPublisher {
	return &OrderChangedPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "kafka-publisher"),
	}
}

// PublishOrderChanged pushes one order status transition onto the bus.
func (p *OrderChangedPublisher) PublishOrderChanged(
	_ context.Context,
	event ports.OrderChangedEvent,
) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	p.logger.Debug("published order change",
		"order_id", event.OrderID,
		"status", event.Status,
		"partition", partition,
		"offset", offset)
	return nil
}

// Close releases the underlying producer.
func (p *OrderChangedPublisher) Close() error {
	return p.producer.Close()
}
