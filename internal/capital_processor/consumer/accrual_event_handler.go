package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/capital_processor/service"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/messaging/producers"
)

// AccrualEventHandler handles incoming accrual request messages from Kafka
type AccrualEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewAccrualEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *AccrualEventHandler {
	return &AccrualEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage decodes an accrual request and processes it. A nil return commits the offset.
func (h *AccrualEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.AccrualRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal accrual request from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		if h.deadLetter(ctx, key, value, fmt.Sprintf("unmarshal accrual request: %s", err.Error())) {
			return nil
		}
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	if request.CorrelationID == "" {
		request.CorrelationID = shared.CorrelationID(ctx)
	}
	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received accrual request for processing",
		"request_id", request.RequestID.String(),
		"loan_note_id", request.LoanNoteID.String(),
	)

	if err := h.processingService.ProcessAccrualRequest(ctx, &request); err != nil {
		if errors.Is(err, service.ErrUnprocessable) && h.deadLetter(ctx, key, value, err.Error()) {
			return nil
		}
		logger.Error("Failed to process accrual request",
			"request_id", request.RequestID.String(),
			"loan_note_id", request.LoanNoteID.String(),
			"error", err,
		)
		return fmt.Errorf("processing accrual request %s failed: %w", request.RequestID.String(), err)
	}

	return nil
}

// deadLetter reports whether the message was parked and its offset can be committed
func (h *AccrualEventHandler) deadLetter(ctx context.Context, key []byte, value []byte, reason string) bool {
	if h.producer == nil {
		return false
	}
	err := h.producer.PublishToDLQ(ctx, string(key), value, reason)
	switch {
	case err == nil:
		h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
		return true
	case errors.Is(err, producers.ErrDLQDisabled):
		h.logger.Warn("DLQ disabled, dropping unprocessable message", "message_key", string(key), "reason", reason)
		return true
	default:
		h.logger.Error("Failed to publish message to DLQ", "dlq_error", err, "message_key", string(key))
		return false
	}
}
