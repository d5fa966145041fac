package notify

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPClient is a connection and channel to a RabbitMQ server
type AMQPClient struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

// DialAMQP opens a connection and a channel
func DialAMQP(url string) (*AMQPClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message queue: %w", err)
	}

	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &AMQPClient{conn: conn, chn: chn}, nil
}

// Close closes the channel and then the connection
func (c *AMQPClient) Close() error {
	if err := c.chn.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}

// DeclareQueue makes sure a durable queue exists
func (c *AMQPClient) DeclareQueue(name string) error {
	_, err := c.chn.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

// Publish sends a persistent JSON message to a queue
func (c *AMQPClient) Publish(ctx context.Context, queue string, body []byte) error {
	return c.chn.PublishWithContext(
		ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume starts delivering messages from a queue with manual acks
func (c *AMQPClient) Consume(queue, consumer string) (<-chan amqp.Delivery, error) {
	if err := c.chn.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}
	return c.chn.Consume(
		queue,
		consumer,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
}
