package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkordes/room-reservation/internal/domain"
)

// RoutingKeys are the event kinds a notification queue binds to.
var RoutingKeys = []string{
	string(domain.EventReservationConfirmed),
	string(domain.EventReservationCancelled),
	string(domain.EventReservationPaymentCancelled),
}

// Handler processes one decoded event.
type Handler interface {
	Handle(ctx context.Context, evt domain.ReservationEvent) error
}

// ErrDeliveriesClosed is returned by Consumer.Run when the broker closes the
// delivery channel while the consumer is still meant to be running.
var ErrDeliveriesClosed = errors.New("mq: delivery channel closed")

// Consumer reads reservation events from a durable queue bound to the exchange.
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *slog.Logger
}

// NewConsumer dials url, declares exchange and queue, and binds the queue to keys.
func NewConsumer(url, exchange, queue string, keys []string, log *slog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("mq.NewConsumer: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mq.NewConsumer: open channel: %w", err)
	}
	fail := func(step string, err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("mq.NewConsumer: %s: %w", step, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			return fail("bind "+rk, err)
		}
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fail("set qos", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: q.Name, log: log}, nil
}

// Run hands every delivery to h until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("mq.Consumer.Run: consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			settle(ctx, d, h, c.log)
		}
	}
}

// Close closes the channel and the connection.
func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// settle handles one delivery and acknowledges it. Undecodable messages are
// dropped; handler failures are requeued once and dropped on redelivery.
func settle(ctx context.Context, d amqp.Delivery, h Handler, log *slog.Logger) {
	var evt domain.ReservationEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		log.ErrorContext(ctx, "mq: undecodable message dropped", "routing_key", d.RoutingKey, "error", err)
		_ = d.Nack(false, false)
		return
	}
	if evt.Kind == "" {
		evt.Kind = domain.EventKind(d.RoutingKey)
	}
	if err := h.Handle(ctx, evt); err != nil {
		log.ErrorContext(ctx, "mq: handle failed",
			"routing_key", d.RoutingKey, "reservation_id", evt.ReservationID, "redelivered", d.Redelivered, "error", err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}
