package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/config"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// CorrelationHeader carries the request correlation id on every produced message
const CorrelationHeader = "correlation-id"

// AccrualRequestProducer writes interest accrual requests to the accrual topic
type AccrualRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewAccrualRequestProducer creates the gateway-side producer and ensures the accrual topic exists
func NewAccrualRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AccrualRequestProducer, error) {
	if cfg.AccrualTopic == "" {
		return nil, fmt.Errorf("kafka accrual topic is not configured")
	}

	err := EnsureTopic(cfg.Brokers, cfg.AccrualTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure accrual topic %s exists: %w", cfg.AccrualTopic, err)
	}

	// keyed by loan note, so one note's requests share a partition
	return &AccrualRequestProducer{
		logger: logger,
		writer: newWriter(cfg, cfg.AccrualTopic, &kafka.Hash{}),
		topic:  cfg.AccrualTopic,
	}, nil
}

// Publish writes value as JSON under key, tagging it with the correlation id from ctx
func (p *AccrualRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal accrual request: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, newMessage(ctx, key, jsonValue)); err != nil {
		p.logger.Error("Failed to publish accrual request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish accrual request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published accrual request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

// PublishAccrualRequest publishes req keyed by its loan note id
func (p *AccrualRequestProducer) PublishAccrualRequest(ctx context.Context, req *shared.AccrualRequest) error {
	return p.Publish(ctx, req.LoanNoteID.String(), req)
}

func (p *AccrualRequestProducer) Close() error {
	p.logger.Info("Closing accrual request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
