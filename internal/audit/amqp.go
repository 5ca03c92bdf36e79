package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPRecorder publishes audit events to a durable RabbitMQ queue as
// persistent JSON messages. It holds one connection and one channel for the
// lifetime of the recorder; publishing is serialized by the amqp channel
// itself. Close the recorder during shutdown.
type AMQPRecorder struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewAMQPRecorder dials the broker, opens a channel, and declares the queue
// (durable, idempotent) so publishing never races queue creation.
func NewAMQPRecorder(url, queue string) (*AMQPRecorder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("audit.NewAMQPRecorder: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit.NewAMQPRecorder: open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("audit.NewAMQPRecorder: declare queue %q: %w", queue, err)
	}

	return &AMQPRecorder{conn: conn, ch: ch, queue: queue}, nil
}

// Record publishes e to the queue on the default exchange. Messages are
// marked persistent so they survive a broker restart.
func (r *AMQPRecorder) Record(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit.AMQPRecorder.Record: marshal: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := r.ch.PublishWithContext(ctx, "", r.queue, false, false, pub); err != nil {
		return fmt.Errorf("audit.AMQPRecorder.Record: publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (r *AMQPRecorder) Close() error {
	if err := r.ch.Close(); err != nil {
		r.conn.Close()
		return fmt.Errorf("audit.AMQPRecorder.Close: channel: %w", err)
	}
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("audit.AMQPRecorder.Close: connection: %w", err)
	}
	return nil
}

// compile-time check: AMQPRecorder must satisfy Recorder.
var _ Recorder = (*AMQPRecorder)(nil)
