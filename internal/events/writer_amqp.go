package events

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// AMQPWriter publishes events to a durable queue on the default exchange.
// The topic given to Write is carried in the message type header.
type AMQPWriter struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewAMQPWriter(url, queue string) (*AMQPWriter, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

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
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &AMQPWriter{conn: conn, channel: ch, queue: q}, nil
}

func (w *AMQPWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	body, err := e.MarshalJSON()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return w.channel.PublishWithContext(
		ctx,
		"",
		w.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/cloudevents+json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID(),
			Type:         e.Type(),
			AppId:        topic,
			Timestamp:    e.Time(),
			Body:         body,
		},
	)
}

func (w *AMQPWriter) Close(_ context.Context) error {
	if err := w.channel.Close(); err != nil {
		_ = w.conn.Close()
		return err
	}
	return w.conn.Close()
}
