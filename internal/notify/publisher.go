// Package notify delivers platform events over AMQP. Mediation and
// moderation transitions publish to the rinknet.notifications exchange; a
// consumer worker drains the queues and hands events to a Deliverer.
// Everything here is best effort: a publish failure is the caller's to log,
// never to surface.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Exchange is the direct exchange all platform events flow through.
const Exchange = "rinknet.notifications"

// QueueBinding ties one queue to one routing key on the exchange.
type QueueBinding struct {
	Queue      string
	RoutingKey string
}

// Bindings returns the queue layout for the notification worker.
func Bindings() []QueueBinding {
	return []QueueBinding{
		{Queue: "notify.contact.requested", RoutingKey: "contact.requested"},
		{Queue: "notify.contact.approved", RoutingKey: "contact.approved"},
		{Queue: "notify.contact.rejected", RoutingKey: "contact.rejected"},
		{Queue: "notify.dispute.opened", RoutingKey: "dispute.opened"},
		{Queue: "notify.dispute.replied", RoutingKey: "dispute.replied"},
		{Queue: "notify.dispute.closed", RoutingKey: "dispute.closed"},
	}
}

// Connect dials the broker, retrying while it comes up.
func Connect(url string, retries int, delay time.Duration) (*amqp.Connection, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("connect amqp: %w", err)
}

// SetupChannel opens a channel and declares the exchange and queue bindings.
func SetupChannel(conn *amqp.Connection, bindings []QueueBinding) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	if err := ch.ExchangeDeclare(Exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.RoutingKey, err)
		}
	}
	return ch, nil
}

// Publisher publishes JSON events to the exchange. Implements the Notifier
// interfaces the contact and moderation services declare.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher wraps an open channel.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish marshals the body and sends it under the routing key. Persistent
// delivery so events survive a broker restart.
func (p *Publisher) Publish(_ context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = p.ch.Publish(Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}
