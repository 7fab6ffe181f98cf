package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ma-siu/pkg/config"
	"ma-siu/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// requeueDelay spaces redeliveries of a failing message so an outage does
// not spin the consumer.
const requeueDelay = 2 * time.Second

// ErrPermanent marks a message that must be dropped instead of requeued.
var ErrPermanent = errors.New("permanent message failure")

// Handler processes one delivery. Returning an error wrapping ErrPermanent
// rejects the message without requeue; any other error requeues it.
type Handler func(ctx context.Context, routingKey string, body []byte) error

type Client struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchange     string
	requeueDelay time.Duration
	logger       *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.RabbitMQExchange, // name
		"topic",              // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:         conn,
		channel:      channel,
		exchange:     cfg.RabbitMQExchange,
		requeueDelay: requeueDelay,
		logger:       log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publish sends payload as persistent JSON to the topic exchange.
func (c *Client) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish message to exchange=%s, routing_key=%s: %v", c.exchange, routingKey, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("[RABBITMQ] Published to exchange=%s, routing_key=%s, size=%d bytes", c.exchange, routingKey, len(body))
	return nil
}

// Consume declares a durable queue bound to routingKeys and dispatches
// deliveries to handler until ctx is cancelled.
func (c *Client) Consume(ctx context.Context, queueName string, routingKeys []string, handler Handler) error {
	if _, err := c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range routingKeys {
		if err := c.channel.QueueBind(queueName, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", queueName, key, err)
		}
	}

	if err := c.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := c.channel.ConsumeWithContext(ctx,
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", queueName)

	go func() {
		for msg := range msgs {
			c.deliver(ctx, msg, handler)
		}
		c.logger.Info("[RABBITMQ] Consumer for %s stopped", queueName)
	}()

	return nil
}

func (c *Client) deliver(ctx context.Context, msg amqp.Delivery, handler Handler) {
	err := handler(ctx, msg.RoutingKey, msg.Body)
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, ErrPermanent):
		c.logger.Error("[RABBITMQ] Dropping message routing_key=%s: %v, body=%s", msg.RoutingKey, err, string(msg.Body))
		msg.Nack(false, false)
	default:
		c.logger.Warn("[RABBITMQ] Handler failed routing_key=%s, requeueing in %s: %v", msg.RoutingKey, c.requeueDelay, err)
		timer := time.NewTimer(c.requeueDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
		msg.Nack(false, true)
	}
}
