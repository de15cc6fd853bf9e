package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/IBM/sarama"
)

// CheckoutHandler is the slice of the command layer the consumer needs.
type CheckoutHandler interface {
	Handle(ctx context.Context, command commands.CheckoutOrderCommand) error
}

// basketConfirmedMessage is the wire format of a confirmed basket produced by
// the ordering side. Prices arrive as paise snapshots taken at basket time.
type basketConfirmedMessage struct {
	OrderID       string              `json:"order_id"`
	CustomerID    string              `json:"customer_id"`
	DiscountPaise int64               `json:"discount_paise"`
	Items         []basketItemMessage `json:"items"`
}

type basketItemMessage struct {
	VendorID       string `json:"vendor_id"`
	Name           string `json:"name"`
	UnitPricePaise int64  `json:"unit_price_paise"`
	Quantity       int    `json:"quantity"`
}

// BasketConfirmedConsumer reads confirmed baskets from Kafka and drives the
// checkout use case. Malformed messages are logged and skipped rather than
// retried: a message that cannot be decoded today cannot be decoded tomorrow,
// and leaving it unmarked would wedge the partition.
type BasketConfirmedConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler CheckoutHandler
	logger  *slog.Logger
}

// NewBasketConfirmedConsumer creates a consumer group member for the given topic.
func NewBasketConfirmedConsumer(
	brokers []string,
	groupID string,
	topic string,
	handler CheckoutHandler,
	logger *slog.Logger,
) (*BasketConfirmedConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &BasketConfirmedConsumer{
		group:   group,
		topic:   topic,
		handler: handler,
		logger:  logger.With("component", "kafka-consumer"),
	}, nil
}

// Run consumes until the context is cancelled. Consume returns on every
// rebalance, so it is called in a loop.
func (c *BasketConfirmedConsumer) Run(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error("consumer group error", "error", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close releases the underlying consumer group.
func (c *BasketConfirmedConsumer) Close() error {
	return c.group.Close()
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *BasketConfirmedConsumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *BasketConfirmedConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler. Every message is
// marked consumed, including ones that failed: checkout failures are either
// permanent (malformed basket) or duplicates from redelivery, and neither
// gets better on retry.
func (c *BasketConfirmedConsumer) ConsumeClaim(
	session sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	for msg := range claim.Messages() {
		if err := c.handleMessage(session.Context(), msg.Value); err != nil {
			c.logger.Warn("skipping basket message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

// handleMessage decodes one confirmed basket and runs checkout for it.
func (c *BasketConfirmedConsumer) handleMessage(ctx context.Context, value []byte) error {
	var msg basketConfirmedMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("decode basket: %w", err)
	}

	command, err := c.toCommand(msg)
	if err != nil {
		return fmt.Errorf("invalid basket: %w", err)
	}

	return c.handler.Handle(ctx, command)
}

func (c *BasketConfirmedConsumer) toCommand(msg basketConfirmedMessage) (commands.CheckoutOrderCommand, error) {
	orderID, err := kernel.UUIDFromString(msg.OrderID)
	if err != nil {
		return commands.CheckoutOrderCommand{}, err
	}

	customerID, err := kernel.UUIDFromString(msg.CustomerID)
	if err != nil {
		return commands.CheckoutOrderCommand{}, err
	}

	discount, err := kernel.NewMoney(msg.DiscountPaise)
	if err != nil {
		return commands.CheckoutOrderCommand{}, err
	}

	items := make([]commands.CheckoutItem, 0, len(msg.Items))
	for _, line := range msg.Items {
		vendorID, vendorErr := kernel.UUIDFromString(line.VendorID)
		if vendorErr != nil {
			return commands.CheckoutOrderCommand{}, vendorErr
		}

		unitPrice, priceErr := kernel.NewMoney(line.UnitPricePaise)
		if priceErr != nil {
			return commands.CheckoutOrderCommand{}, priceErr
		}

		items = append(items, commands.CheckoutItem{
			VendorID:  vendorID,
			Name:      line.Name,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
		})
	}

	return commands.NewCheckoutOrderCommand(orderID, customerID, items, discount)
}
