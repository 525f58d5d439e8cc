// Package mq carries reservation events over a RabbitMQ topic exchange.
// The routing key of every message is the event kind.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkordes/room-reservation/internal/domain"
)

// Publisher publishes reservation events as persistent JSON messages.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	ch       *amqp.Channel
	exchange string
}

// NewPublisher dials url and declares the durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("mq.NewPublisher: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mq.NewPublisher: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("mq.NewPublisher: declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends evt with its kind as routing key.
func (p *Publisher) Publish(ctx context.Context, evt domain.ReservationEvent) error {
	msg, err := encode(evt)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, string(evt.Kind), false, false, msg); err != nil {
		return fmt.Errorf("mq.Publisher.Publish: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func encode(evt domain.ReservationEvent) (amqp.Publishing, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("mq.encode: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ReservationID.String() + ":" + string(evt.Kind),
		Timestamp:    evt.OccurredAt,
		Type:         string(evt.Kind),
		Body:         b,
	}, nil
}
