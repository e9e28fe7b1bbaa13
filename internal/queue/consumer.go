package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/logger"
)

// ActivityLogName is the file the consumer appends to inside its log dir.
const ActivityLogName = "activity.log"

// Consumer drains the activity queue into a log file.
type Consumer struct {
	url    string
	queue  string
	logDir string
	mu     sync.Mutex // serialises file appends
}

func NewConsumer(cfg config.EventsConfig) *Consumer {
	return &Consumer{url: cfg.URL, queue: cfg.Queue, logDir: cfg.LogDir}
}

// Run connects, consumes and reconnects with exponential backoff (capped at
// 30s) until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	log := logger.WithService("activity-consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Warn("dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		log.Info("connected", "queue", c.queue)

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("activity-consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				logger.Warn("activity-consumer: handle message failed", "error", err)
				_ = d.Nack(false, false) // poison messages are dropped, not requeued
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends it to the activity log.
func (c *Consumer) Handle(body []byte) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, ActivityLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(ev.Line()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
