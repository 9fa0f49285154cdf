package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/equity-capital-ledger/internal/config"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then blocks until the context is cancelled
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.committed))
	for _, m := range r.committed {
		keys = append(keys, string(m.Key))
	}
	return keys
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		AccrualTopic:  "cln_accrual_requests",
		ConsumerGroup: "accrual-processor-group",
		MinBytes:      1024,
		MaxBytes:      10240,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), newTestLogger(), cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader, "Kafka reader should be initialized")
	require.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	t.Run("CommitsHandledMessagesOnly", func(t *testing.T) {
		reader := &fakeReader{
			fetchErrs: []error{errors.New("broker not available")},
			messages: []kafka.Message{
				{Key: []byte("ok-1"), Value: []byte(`{}`), Headers: []kafka.Header{{Key: CorrelationHeader, Value: []byte("corr-1")}}},
				{Key: []byte("bad"), Value: []byte(`{}`)},
				{Key: []byte("ok-2"), Value: []byte(`{}`)},
			},
		}
		consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}

		var mu sync.Mutex
		seen := map[string]string{}
		handler := func(ctx context.Context, key []byte, value []byte) error {
			mu.Lock()
			seen[string(key)] = shared.CorrelationID(ctx)
			mu.Unlock()
			if string(key) == "bad" {
				return errors.New("handler failed")
			}
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, consumer.Subscribe(ctx, "cln_accrual_requests", "accrual-processor-group", handler))

		assert.Eventually(t, func() bool {
			return len(reader.committedKeys()) == 2
		}, time.Second, 10*time.Millisecond)
		cancel()

		assert.Equal(t, []string{"ok-1", "ok-2"}, reader.committedKeys())
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "corr-1", seen["ok-1"])
		assert.Equal(t, "", seen["ok-2"])
		assert.Contains(t, seen, "bad")
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{
			reader: nil,
			logger: newTestLogger(),
		}
		require.NoError(t, consumer.Close(), "Close should return nil if reader is nil")
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
