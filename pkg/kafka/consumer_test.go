package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dwikikusuma/shopmesh/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		f.cancel()
		return kafka.Message{}, context.Canceled
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func newTestConsumer(r reader) *Consumer {
	c := newConsumer(r, logger.Nop())
	c.backoff = time.Millisecond
	c.maxBackoff = 4 * time.Millisecond
	return c
}

func TestConsumer_HandlesInOrderAndCommitsEach(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		queue: []kafka.Message{
			{Topic: "users.events", Offset: 1, Value: []byte("a")},
			{Topic: "users.events", Offset: 2, Value: []byte("b")},
			{Topic: "users.events", Offset: 3, Value: []byte("c")},
		},
		cancel: cancel,
	}
	c := newTestConsumer(r)

	var seen []string
	failures := 2
	err := c.Run(ctx, func(ctx context.Context, msg Message) error {
		seen = append(seen, string(msg.Value))
		if msg.Offset == 2 && failures > 0 {
			failures--
			return errors.New("store unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "b", "b", "c"}, seen)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
}

func TestConsumer_PermanentErrorIsCommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		queue: []kafka.Message{
			{Topic: "users.events", Offset: 1, Value: []byte("poison")},
			{Topic: "users.events", Offset: 2, Value: []byte("ok")},
		},
		cancel: cancel,
	}
	c := newTestConsumer(r)

	calls := 0
	err := c.Run(ctx, func(ctx context.Context, msg Message) error {
		calls++
		if msg.Offset == 1 {
			return fmt.Errorf("decode: %w", Permanent(errors.New("bad payload")))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int64{1, 2}, r.committed)
}

func TestConsumer_FailedMessageNotCommittedOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		queue: []kafka.Message{
			{Topic: "users.events", Offset: 1, Value: []byte("a")},
			{Topic: "users.events", Offset: 2, Value: []byte("b")},
		},
		cancel: cancel,
	}
	c := newTestConsumer(r)

	attempts := 0
	err := c.Run(ctx, func(ctx context.Context, msg Message) error {
		if msg.Offset == 1 {
			return nil
		}
		attempts++
		if attempts == 3 {
			cancel()
		}
		return errors.New("store unavailable")
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int64{1}, r.committed)
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	base := errors.New("bad payload")
	err := fmt.Errorf("handle: %w", Permanent(base))
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}

func TestNewPublisher_Validates(t *testing.T) {
	_, err := NewPublisher(PublisherConfig{Topic: "users.events"})
	require.Error(t, err)

	_, err = NewPublisher(PublisherConfig{Brokers: []string{"localhost:9092"}})
	require.Error(t, err)

	p, err := NewPublisher(PublisherConfig{Brokers: []string{"localhost:9092"}, Topic: "users.events", ClientID: "identity"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
