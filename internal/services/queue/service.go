// Package queue publishes item outcome events to RabbitMQ so downstream
// consumers can react to uploaded images.
package queue

import (
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel used by the publisher.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ Channel = (*amqp.Channel)(nil)

type Publisher struct {
	conn      *amqp.Connection
	channel   Channel
	logger    *zap.Logger
	queueName string

	mu sync.Mutex
}

func NewPublisher(rabbitmqURL, queueName string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := NewPublisherWithChannel(channel, queueName, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisherWithChannel declares the queue on an already open channel.
func NewPublisherWithChannel(channel Channel, queueName string, logger *zap.Logger) (*Publisher, error) {
	_, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Publisher{
		channel:   channel,
		logger:    logger,
		queueName: queueName,
	}, nil
}

// Close closes the channel and, when the publisher dialed it, the connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// HealthCheck checks if RabbitMQ is available
func (p *Publisher) HealthCheck() string {
	if p.conn != nil && p.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if p.channel == nil {
		return "unhealthy: channel not available"
	}

	return "healthy"
}
