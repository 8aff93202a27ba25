package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
)

// Deliverer turns a drained event into an outbound notification. Email and
// SMS providers are collaborators behind this interface; the default
// deliverer just logs.
type Deliverer interface {
	Deliver(ctx context.Context, routingKey string, payload []byte) error
}

// LogDeliverer logs each event instead of sending anything. Used in dev and
// as the fallback when no provider is configured.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d *LogDeliverer) Deliver(ctx context.Context, routingKey string, payload []byte) error {
	var pretty map[string]any
	if err := json.Unmarshal(payload, &pretty); err != nil {
		pretty = map[string]any{"raw": string(payload)}
	}
	d.Logger.InfoContext(ctx, "notification", "routing_key", routingKey, "event", pretty)
	return nil
}

// Consumer drains the notification queues and hands each event to the
// deliverer. Failed deliveries are requeued once by the broker.
type Consumer struct {
	ch        *amqp.Channel
	deliverer Deliverer
	logger    *slog.Logger
}

func NewConsumer(ch *amqp.Channel, deliverer Deliverer, logger *slog.Logger) *Consumer {
	return &Consumer{ch: ch, deliverer: deliverer, logger: logger}
}

// Run consumes every bound queue until the context ends. Blocking; run it
// under the server's errgroup.
func (c *Consumer) Run(ctx context.Context, bindings []QueueBinding) error {
	for _, b := range bindings {
		deliveries, err := c.ch.Consume(b.Queue, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", b.Queue, err)
		}
		go c.drain(ctx, b.RoutingKey, deliveries)
	}
	<-ctx.Done()
	return nil
}

func (c *Consumer) drain(ctx context.Context, routingKey string, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := c.deliverer.Deliver(ctx, routingKey, d.Body); err != nil {
				c.logger.WarnContext(ctx, "notification delivery failed",
					"routing_key", routingKey, "error", err)
				if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
					c.logger.WarnContext(ctx, "nack failed", "error", nackErr)
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				c.logger.WarnContext(ctx, "ack failed", "error", ackErr)
			}
		case <-ctx.Done():
			return
		}
	}
}
