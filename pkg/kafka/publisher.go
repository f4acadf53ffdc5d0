// Package kafka wraps segmentio/kafka-go with the two independent roles the
// services need: a publisher with no consumer group, and a group consumer.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type PublisherConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka publisher: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
		// a single attempt; redelivery is the bus's concern, not ours
		MaxAttempts: 1,
		Transport:   &kafka.Transport{ClientID: cfg.ClientID},
	}
	return &Publisher{w: w}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.w.Topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
