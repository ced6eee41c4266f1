package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher emits domain events to RabbitMQ.  Publishing is best
// effort: the allocation has already committed by the time an event
// goes out, so a broker outage costs the audit trail, never the
// transaction.  Callers fire it after commit and log failures.
type Publisher struct {
	url    string
	logger zerolog.Logger
}

// NewPublisher returns a Publisher for the given AMQP URL.  An empty
// URL yields a disabled publisher whose Publish is a no-op.
func NewPublisher(url string, logger zerolog.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Enabled reports whether a broker URL is configured.
func (p *Publisher) Enabled() bool { return p.url != "" }

// Publish marshals the event and sends it to the named durable queue.
// A fresh connection per publish keeps the publisher stateless; volume
// here is one message per committed allocation, not a hot path.
func (p *Publisher) Publish(ctx context.Context, queueName string, event interface{}) error {
	if !p.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(pubCtx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishAsync fires Publish on a goroutine and logs any failure.  The
// HTTP handlers use this so the response never waits on the broker.
func (p *Publisher) PublishAsync(queueName string, event interface{}) {
	if !p.Enabled() {
		return
	}
	go func() {
		if err := p.Publish(context.Background(), queueName, event); err != nil {
			p.logger.Warn().Err(err).Str("queue", queueName).Msg("event publish failed")
		}
	}()
}
