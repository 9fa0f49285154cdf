package producers

import (
	"context"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// AccrualPublisher queues interest accrual requests for the capital processor
type AccrualPublisher interface {
	PublishAccrualRequest(ctx context.Context, req *shared.AccrualRequest) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
