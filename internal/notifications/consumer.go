package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fixpoint/internal/middleware"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains the status-change queue and hands each event to the mailer.
type Consumer struct {
	url    string
	mailer *Mailer
}

func NewConsumer(url string, mailer *Mailer) *Consumer {
	return &Consumer{url: url, mailer: mailer}
}

// Run consumes until ctx is cancelled. Broker outages are retried with
// exponential backoff; a malformed or undeliverable message is rejected
// without requeueing so it cannot wedge the queue.
func (c *Consumer) Run(ctx context.Context) {
	if c.url == "" {
		middleware.Logger.Info("status consumer disabled, no broker configured")
		return
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			middleware.Logger.Warn("status consumer dial failed",
				"error", err.Error(),
				"retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, conn); err != nil {
			middleware.Logger.Warn("status consumer loop ended, reconnecting",
				"error", err.Error())
		}
		_ = conn.Close()
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	if _, err := ch.QueueDeclare(StatusQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(StatusQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				middleware.Logger.Warn("status event handling failed",
					"error", err.Error())
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var event StatusChangedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Email == "" {
		middleware.Logger.Info("status event has no addressee, skipping",
			"tracking_code", event.TrackingCode)
		return nil
	}
	return c.mailer.SendStatusEmail(event)
}
