package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/capital_processor/service"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

type RequestValidatorImpl struct {
	runs   accrualrun.Repository
	logger *slog.Logger
}

func NewRequestValidator(runs accrualrun.Repository, logger *slog.Logger) service.RequestValidator {
	return &RequestValidatorImpl{
		runs:   runs,
		logger: logger,
	}
}

// Validate checks accrual request validity
func (v *RequestValidatorImpl) Validate(ctx context.Context, request *shared.AccrualRequest) error {
	switch {
	case request.RequestID == uuid.Nil:
		return errors.New("request_id is required")
	case request.LoanNoteID == uuid.Nil:
		return errors.New("loan_note_id is required")
	case request.AsOfDate.IsZero():
		return errors.New("as_of_date is required")
	case request.ExchangeRate != nil && !request.ExchangeRate.IsPositive():
		return fmt.Errorf("exchange_rate must be positive, got %s", request.ExchangeRate.String())
	}
	return nil
}

// CheckIdempotency reports whether the request already reached a terminal run status
func (v *RequestValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.AccrualRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	run, err := v.runs.GetByRequestID(ctx, request.RequestID)
	if err != nil {
		if errors.Is(err, accrualrun.ErrRunNotFound{}) {
			return false, nil
		}
		logger.Error("Failed to check accrual runs for idempotency", "request_id", request.RequestID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for accrual request %s: %w", request.RequestID.String(), err)
	}

	if run.Finished() {
		logger.Info("Accrual request already processed (idempotency)", "request_id", request.RequestID.String(), "status", run.Status)
		return true, nil
	}
	logger.Info("Accrual run found with non-terminal status, proceeding", "request_id", request.RequestID.String(), "status", run.Status)
	return false, nil
}
