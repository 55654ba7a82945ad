package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

// DefaultQueue is the queue EventCreated messages are published to.
const DefaultQueue = "pinmap.event.created"

// AMQPPublisher publishes EventCreated messages to a durable RabbitMQ queue.
// A connection is opened per publish; event creation is rare.
type AMQPPublisher struct {
	url   string
	queue string
	now   func() time.Time
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queue, now: time.Now}
}

func (p *AMQPPublisher) NotifyEventCreated(ctx context.Context, ev EventCreated) error {
	msg, err := p.publishing(ev)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, p.queue); err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) publishing(ev EventCreated) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.PinID,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("amqp declare queue %s: %w", name, err)
	}
	return q, nil
}

// Consumer drains the event queue and hands every message to a Notifier,
// normally a MailNotifier.
type Consumer struct {
	url      string
	queue    string
	next     Notifier
	log      logger.Logger
	prefetch int
	timeout  time.Duration
}

func NewConsumer(url, queue string, next Notifier, log logger.Logger, timeout time.Duration) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Consumer{
		url:      url,
		queue:    queue,
		next:     next,
		log:      logger.With(log, logger.String("queue", queue)),
		prefetch: 10,
		timeout:  timeout,
	}
}

// Run consumes until ctx is cancelled, reconnecting with backoff.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			c.log.Info("🛑 event consumer stopped")
			return
		}

		c.log.Warn("event consumer disconnected, retrying",
			logger.Duration("backoff", backoff),
			logger.Error(err))

		select {
		case <-ctx.Done():
			c.log.Info("🛑 event consumer stopped")
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, c.queue); err != nil {
		return err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("amqp qos: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}

	c.log.Info("✅ event consumer connected")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	if err := c.handle(ctx, d.Body); err != nil {
		c.log.Warn("event message rejected", logger.String("message_id", d.MessageId), logger.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.log.Warn("nack failed", logger.Error(nackErr))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.log.Warn("ack failed", logger.Error(err))
	}
}

// handle decodes one message body and forwards it.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev EventCreated
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if ev.PinID == "" {
		return errors.New("event without pin_id")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.next.NotifyEventCreated(ctx, ev)
}
