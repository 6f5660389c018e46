package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AmqpPositionSource consumes device messages from a durable queue.
type AmqpPositionSource struct {
	streamBuffer
	url   string
	queue string
	log   *slog.Logger
}

func NewAmqpPositionSource(url, queue string, log *slog.Logger) *AmqpPositionSource {
	return &AmqpPositionSource{url: url, queue: queue, log: log}
}

func (s *AmqpPositionSource) Run(ctx context.Context) error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		s.queue, // name
		true,    // durable
		false,   // auto-delete
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Qos(64, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.log.Info("amqp ingest consumer started", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			s.handle(msg)
		}
	}
}

// Malformed messages are rejected without requeue so they cannot loop.
func (s *AmqpPositionSource) handle(msg amqp.Delivery) {
	p, err := decodeDeviceMessage(msg.Body)
	if err != nil {
		s.log.Warn("dropping amqp message", "err", err)
		_ = msg.Nack(false, false)
		return
	}
	s.push(p)
	_ = msg.Ack(false)
}
