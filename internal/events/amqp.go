package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const amqpPublishTimeout = 5 * time.Second

// AMQPPublisher writes events to a durable RabbitMQ queue. Unlike Redis
// pub/sub, messages survive a consumer being offline.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     *zap.Logger
}

func NewAMQPPublisher(url, queue string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Идемпотентно: очередь создаётся, если её нет
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	log.Info("connected to RabbitMQ", zap.String("queue", q.Name), zap.Int("messages", q.Messages))
	return &AMQPPublisher{conn: conn, channel: ch, queue: q, log: log}, nil
}

// Publish ignores channel for routing; it is kept in the message type header.
func (p *AMQPPublisher) Publish(ctx context.Context, channel string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, amqpPublishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(publishCtx,
		"",           // default exchange
		p.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         event.Type,
			Headers:      amqp.Table{"channel": channel},
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() {
	if err := p.channel.Close(); err != nil {
		p.log.Warn("error closing RabbitMQ channel", zap.Error(err))
	}
	if err := p.conn.Close(); err != nil {
		p.log.Warn("error closing RabbitMQ connection", zap.Error(err))
	}
}
