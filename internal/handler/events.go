package handler

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/route-roster/backend/internal/domain"
)

// Publisher delivers roster change events to the notification worker.
type Publisher interface {
	Publish(ctx context.Context, event domain.ScheduleChangedEvent) error
}

// AMQPPublisher puts events on a durable RabbitMQ queue consumed by cmd/mail.
type AMQPPublisher struct {
	ch      *amqp.Channel
	queue   string
	timeout time.Duration
}

func NewAMQPPublisher(ch *amqp.Channel, queue string, timeout time.Duration) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue, timeout: timeout}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event domain.ScheduleChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// the request may be finished by the time the broker answers
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, domain.ScheduleChangedEvent) error { return nil }

// publish never fails the request; the roster change is already committed.
func (h *Handler) publish(ctx context.Context, event domain.ScheduleChangedEvent) {
	if err := h.events.Publish(ctx, event); err != nil {
		h.log.Warn("cannot publish schedule event", "type", event.Type, "entryID", event.EntryID, "error", err)
	}
}
