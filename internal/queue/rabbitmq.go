// Package queue carries refresh events between server instances over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultExchangeName is the default fanout exchange name
const DefaultExchangeName = "project_assistant.refresh"

// RabbitMQBus implements EventBus with a fanout exchange. Every subscriber gets an
// exclusive, auto-deleted queue bound to the exchange.
type RabbitMQBus struct {
	conn         *amqp.Connection
	mu           sync.Mutex // guards channel; amqp channels are not safe for concurrent publish
	channel      *amqp.Channel
	exchangeName string
	origin       string
	logger       *zap.Logger
}

// NewRabbitMQBus connects to RabbitMQ and declares the exchange. origin tags published
// events with this instance's identity.
func NewRabbitMQBus(amqpURL, exchangeName, origin string, logger *zap.Logger) (*RabbitMQBus, error) {
	if exchangeName == "" {
		exchangeName = DefaultExchangeName
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQBus{
		conn:         conn,
		channel:      ch,
		exchangeName: exchangeName,
		origin:       origin,
		logger:       logger,
	}, nil
}

// Publish sends the event to the fanout exchange. The message expires at the event's NotAfter.
func (b *RabbitMQBus) Publish(ctx context.Context, event *Event) error {
	publishing, err := b.publishing(event, time.Now())
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName,
		"",    // routing key ignored by fanout
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *RabbitMQBus) publishing(event *Event, now time.Time) (amqp.Publishing, error) {
	if event.Origin == "" {
		event.Origin = b.origin
	}
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Transient,
		MessageId:    event.ID.String(),
		Timestamp:    event.CreatedAt,
		Type:         string(event.Type),
	}
	if !event.NotAfter.IsZero() {
		ttl := event.NotAfter.Sub(now)
		if ttl <= 0 {
			ttl = time.Millisecond
		}
		publishing.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}
	return publishing, nil
}

// Subscribe binds a fresh exclusive queue to the exchange and delivers its messages
func (b *RabbitMQBus) Subscribe(ctx context.Context) (<-chan MessageInterface, <-chan error, error) {
	consumeCh, err := b.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	q, err := consumeCh.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to declare subscriber queue: %w", err)
	}

	if err := consumeCh.QueueBind(q.Name, "", b.exchangeName, false, nil); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to bind subscriber queue: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.Name,
		"",    // consumer tag (empty = auto-generate)
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan MessageInterface, 16)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() { _ = consumeCh.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- fmt.Errorf("delivery channel closed")
					return
				}

				var event Event
				if err := json.Unmarshal(delivery.Body, &event); err != nil {
					_ = delivery.Nack(false, false)
					b.logger.Warn("bus_event_invalid", zap.Error(err))
					continue
				}
				if event.IsExpired(time.Now()) {
					_ = delivery.Ack(false)
					continue
				}

				msg := &Message{
					Event:       &event,
					DeliveryTag: delivery.DeliveryTag,
					Channel:     consumeCh,
				}
				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, false)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// HealthCheck reports whether the connection and publish channel are open
func (b *RabbitMQBus) HealthCheck(_ context.Context) error {
	if b.conn == nil || b.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection closed")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel == nil || b.channel.IsClosed() {
		return fmt.Errorf("rabbitmq channel closed")
	}
	return nil
}

// Close closes the bus connection
func (b *RabbitMQBus) Close() error {
	var err error
	b.mu.Lock()
	if b.channel != nil {
		err = b.channel.Close()
	}
	b.mu.Unlock()
	if b.conn != nil {
		if closeErr := b.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// Message wraps an Event with its RabbitMQ delivery information
type Message struct {
	Event       *Event
	DeliveryTag uint64
	Channel     *amqp.Channel
}

// Ack acknowledges the message
func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack negatively acknowledges the message
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

// GetEvent returns the decoded event
func (m *Message) GetEvent() *Event {
	return m.Event
}

var (
	_ EventBus         = (*RabbitMQBus)(nil)
	_ MessageInterface = (*Message)(nil)
)
