package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPositionSource reads device messages as a consumer-group member.
type KafkaPositionSource struct {
	streamBuffer
	brokers []string
	topic   string
	groupID string
	log     *slog.Logger
}

func NewKafkaPositionSource(brokers []string, topic, groupID string, log *slog.Logger) *KafkaPositionSource {
	return &KafkaPositionSource{brokers: brokers, topic: topic, groupID: groupID, log: log}
}

func (s *KafkaPositionSource) Run(ctx context.Context) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        s.brokers,
		Topic:          s.topic,
		GroupID:        s.groupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	defer r.Close()
	s.log.Info("kafka ingest reader started", "topic", s.topic, "group", s.groupID)

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read kafka message: %w", err)
		}
		p, err := decodeDeviceMessage(msg.Value)
		if err != nil {
			s.log.Warn("dropping kafka message", "err", err, "partition", msg.Partition, "offset", msg.Offset)
			continue
		}
		s.push(p)
	}
}
