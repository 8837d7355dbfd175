package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrBufferFull is returned when the publisher cannot keep up.  Events are
// best effort, so callers log it and move on.
var ErrBufferFull = errors.New("event buffer full")

// Publisher accepts activity events.  Publish must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.  It is used when RABBITMQ_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// AMQPPublisher buffers events and sends them from a single goroutine
// (Run) over one lazily dialled connection.  A failed send drops the event
// and the connection; the next event redials.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *slog.Logger
	events chan Event

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{url: url, queue: QueueName, logger: logger, events: make(chan Event, 256)}
}

func (p *AMQPPublisher) Publish(_ context.Context, ev Event) error {
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

// Run drains the buffer until ctx is cancelled.
func (p *AMQPPublisher) Run(ctx context.Context) {
	defer p.reset()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.send(ctx, ev); err != nil {
				p.logger.Warn("activity event dropped", "type", ev.Type, "error", err)
				p.reset()
			}
		}
	}
}

func (p *AMQPPublisher) send(ctx context.Context, ev Event) error {
	if p.ch == nil {
		if err := p.connect(); err != nil {
			return err
		}
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
