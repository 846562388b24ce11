package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPChannel is the part of *amqp.Channel the forwarder needs.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPForwarder republishes bus events to a topic exchange, routed by event type.
type AMQPForwarder struct {
	mu       sync.Mutex
	ch       AMQPChannel
	exchange string
	source   string
	logger   *zerolog.Logger
}

func NewAMQPForwarder(ch AMQPChannel, exchange, source string, logger *zerolog.Logger) (*AMQPForwarder, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPForwarder{ch: ch, exchange: exchange, source: source, logger: logger}, nil
}

// Forward publishes one event. It is meant to run as a bus subscriber.
func (f *AMQPForwarder) Forward(ctx context.Context, event *Event) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.CreatedAt,
		Type:         event.Type,
		AppId:        f.source,
		Body:         event.Payload,
	}

	f.mu.Lock()
	err := f.ch.PublishWithContext(
		ctx,
		f.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s to amqp: %w", event.Type, err)
	}

	f.logger.Debug().Str("event", event.Type).Str("event_id", event.ID).Msg("event forwarded to amqp")
	return nil
}

// DialAMQP opens a connection and a channel to the broker.
func DialAMQP(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return conn, ch, nil
}
