// Package messaging publishes domain events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys
const (
	KeyMemberApproved  = "member.approved"
	KeyMemberRejected  = "member.rejected"
	KeyMemberActivated = "member.activated"
	KeyPaymentRecorded = "payment.recorded"
)

// Publisher publishes JSON events to a durable topic exchange
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher dials the broker and declares exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Printf("✅ RabbitMQ connected [exchange: %s]", exchange)
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends v as a persistent JSON message. Channels are not safe
// for concurrent publishing, so calls are serialized.
func (p *Publisher) Publish(ctx context.Context, key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close closes the channel and connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Close does nothing
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

// Event is one recorded publication
type Event struct {
	Key     string
	Payload interface{}
}

// Publish records the event
func (r *Recorder) Publish(_ context.Context, key string, v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Key: key, Payload: v})
	return nil
}

// Keys returns the routing keys in publication order
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		keys = append(keys, e.Key)
	}
	return keys
}

// Close does nothing
func (*Recorder) Close() error { return nil }
