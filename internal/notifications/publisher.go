package notifications

import (
	"context"
	"encoding/json"
	"time"

	"fixpoint/internal/middleware"
	"fixpoint/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits status-change events. Implementations must be safe to call
// from request handlers; failures are reported, never fatal.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error
}

// AMQPPublisher publishes events to a durable RabbitMQ queue. A connection is
// dialed per publish so the publisher never holds broker state between calls.
type AMQPPublisher struct {
	url string
}

// NewAMQPPublisher returns a publisher for the given broker URL. An empty URL
// yields a nil publisher; callers treat that as notifications disabled.
func NewAMQPPublisher(url string) *AMQPPublisher {
	if url == "" {
		return nil
	}
	return &AMQPPublisher{url: url}
}

// PublishStatusChanged sends the event as a persistent JSON message. Errors
// are logged and returned so the caller can ignore them without losing the
// request flow.
func (p *AMQPPublisher) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	err := p.publish(ctx, event)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "status event publish failed",
			"tracking_code", event.TrackingCode,
			"status", string(event.Status),
			"error", err.Error())
		observability.StatusEventsPublished.WithLabelValues("error").Inc()
		return err
	}
	observability.StatusEventsPublished.WithLabelValues("success").Inc()
	return nil
}

func (p *AMQPPublisher) publish(ctx context.Context, event StatusChangedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(StatusQueueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",              // default exchange
		StatusQueueName, // routing key = queue name
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}
