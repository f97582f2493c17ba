package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange kitchen displays bind to.
const Exchange = "kitchen"

// Notifier delivers tickets to the kitchen.
type Notifier interface {
	Notify(ctx context.Context, t Ticket) error
}

// Nop drops tickets. It is used when no broker is configured.
type Nop struct{}

func (Nop) Notify(ctx context.Context, t Ticket) error { return nil }

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Close() error
}

// AMQPNotifier publishes tickets to RabbitMQ.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   channel
}

// Dial connects to the broker and declares the kitchen exchange.
func Dial(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	n, err := newNotifier(ch)
	if err != nil {
		conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

func newNotifier(ch channel) (*AMQPNotifier, error) {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}
	return &AMQPNotifier{ch: ch}, nil
}

// Notify publishes the ticket as persistent JSON. Empty tickets are skipped.
func (n *AMQPNotifier) Notify(ctx context.Context, t Ticket) error {
	if t.Empty() {
		return nil
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	key := RoutingKey(t.TableID)
	err = n.ch.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		MessageId:    t.OrderID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish ticket %s: %w", key, err)
	}
	log.Printf("[kitchen] ticket order=%s items=%d key=%s", t.OrderID, len(t.Items), key)
	return nil
}

func (n *AMQPNotifier) Close() {
	if n == nil {
		return
	}
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}
