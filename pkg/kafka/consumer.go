package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	ClientID string

	// RetryBackoff is the first wait after a failed handler call. It doubles
	// per attempt up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

const (
	defaultRetryBackoff    = 200 * time.Millisecond
	defaultMaxRetryBackoff = 10 * time.Second
)

// Message is the part of a bus record handlers see.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
}

type Handler func(ctx context.Context, msg Message) error

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks a handler error that retrying cannot fix. The consumer logs
// it and commits past the message.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer processes one message at a time and commits its offset only after
// the handler succeeds or reports a Permanent error. Other failures are
// retried with backoff against the same message, so a partition never moves
// past an unhandled record. A crash or shutdown before the commit redelivers
// the message.
type Consumer struct {
	r          reader
	log        *slog.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(cfg ConsumerConfig, log *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer: no brokers configured")
	}
	if cfg.GroupID == "" || cfg.Topic == "" {
		return nil, errors.New("kafka consumer: group id and topic are required")
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
		Dialer:         &kafka.Dialer{ClientID: cfg.ClientID, Timeout: 10 * time.Second},
	})
	c := newConsumer(r, log)
	if cfg.RetryBackoff > 0 {
		c.backoff = cfg.RetryBackoff
	}
	if cfg.MaxRetryBackoff > 0 {
		c.maxBackoff = cfg.MaxRetryBackoff
	}
	return c, nil
}

func newConsumer(r reader, log *slog.Logger) *Consumer {
	return &Consumer{r: r, log: log, backoff: defaultRetryBackoff, maxBackoff: defaultMaxRetryBackoff}
}

// Run blocks until ctx is cancelled or the reader fails.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		msg := Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
		}
		if !c.handle(ctx, h, msg) {
			// shutting down mid-retry; the uncommitted offset is redelivered
			return nil
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// handle runs h until it succeeds or fails permanently. It reports false
// when ctx ends first.
func (c *Consumer) handle(ctx context.Context, h Handler, msg Message) bool {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, msg)
		if err == nil {
			return true
		}

		attrs := []any{
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.Any("err", err),
		}
		if IsPermanent(err) {
			c.log.Error("event handler failed permanently, skipping", attrs...)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.log.Warn("event handler failed, retrying", append(attrs, slog.Duration("backoff", wait))...)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		wait = min(wait*2, c.maxBackoff)
	}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}
