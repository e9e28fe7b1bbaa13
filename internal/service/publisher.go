// Package service publishes activity events to RabbitMQ. Publishing is best
// effort: failures are logged and never reach the request that caused them.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/queue"
)

// Publisher sends activity events.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// NewPublisher returns an AMQP publisher, or a no-op one when events are
// disabled.
func NewPublisher(cfg config.EventsConfig) Publisher {
	if !cfg.Enabled {
		return NopPublisher{}
	}
	return &AMQPPublisher{url: cfg.URL, queue: cfg.Queue, dialTimeout: cfg.DialTimeout}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

// AMQPPublisher dials the broker per publish. Traffic is low (one event per
// write request) so no connection is kept open.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ActivityEvent) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	})
}

// Emit stamps and publishes ev in the background with its own timeout, so
// the caller never waits on the broker.
func Emit(pub Publisher, ev queue.ActivityEvent) {
	if pub == nil {
		return
	}
	if _, ok := pub.(NopPublisher); ok {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.Publish(ctx, ev); err != nil {
			logger.ExternalServiceResult("rabbitmq", "publish", err, "event", ev.Type)
			return
		}
		logger.ExternalServiceResult("rabbitmq", "publish", nil, "event", ev.Type)
	}()
}
