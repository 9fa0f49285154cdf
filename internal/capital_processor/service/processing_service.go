package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

type ProcessingServiceImpl struct {
	accruer   InterestAccruer
	validator RequestValidator
	recorder  RunRecorder
	logger    *slog.Logger
}

func NewProcessingService(
	accruer InterestAccruer,
	validator RequestValidator,
	recorder RunRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		accruer:   accruer,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// ProcessAccrualRequest accrues interest on the requested loan note and records the outcome
// on the request's accrual run. Business failures are recorded and acknowledged; infrastructure
// failures are returned so the message is redelivered.
func (s *ProcessingServiceImpl) ProcessAccrualRequest(ctx context.Context, request *shared.AccrualRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
		if shared.CorrelationID(ctx) == "" {
			ctx = shared.WithCorrelationID(ctx, request.CorrelationID)
		}
	}

	logger.Info("Processing accrual request",
		"request_id", request.RequestID.String(),
		"loan_note_id", request.LoanNoteID.String(),
		"as_of_date", request.AsOfDate.Format("2006-01-02"),
	)

	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Error("Accrual request validation failed", "request_id", request.RequestID.String(), "error", err)
		if request.RequestID != uuid.Nil {
			if recordErr := s.recorder.RecordFailure(ctx, request, shared.FailureReasonInvalidRequest, err.Error()); recordErr != nil {
				logger.Error("Failed to record invalid accrual request", "request_id", request.RequestID.String(), "error", recordErr)
			}
		}
		return nil
	}

	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	run, err := s.recorder.RecordPending(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to record pending accrual run %s: %w", request.RequestID.String(), err)
	}

	result, err := s.accruer.AccrueInterest(ctx, capital.AccrualInput{
		LoanNoteID:   request.LoanNoteID,
		AsOfDate:     request.AsOfDate,
		ExchangeRate: request.ExchangeRate,
	})
	if err != nil {
		reason, known := FailureReasonFor(err)
		if !known {
			logger.Error("Accrual failed, leaving request for redelivery", "request_id", request.RequestID.String(), "error", err)
			return err
		}

		logger.Warn("Accrual rejected", "request_id", request.RequestID.String(), "reason", reason, "error", err)
		if recordErr := s.recorder.RecordFailure(ctx, request, reason, err.Error()); recordErr != nil {
			logger.Error("Failed to record accrual failure", "request_id", request.RequestID.String(), "error", recordErr)
		}
		if reason == shared.FailureReasonPostingImbalance {
			return fmt.Errorf("%w: %v", ErrUnprocessable, err)
		}
		return nil
	}

	// The posting is committed at this point; a redelivery would only find an empty period.
	if err := s.recorder.RecordCompleted(ctx, run, result.PostingID, result.Accrual.InterestAmount); err != nil {
		logger.Error("Failed to record completed accrual run", "request_id", request.RequestID.String(), "error", err)
	}

	logger.Info("Accrual request processed",
		"request_id", request.RequestID.String(),
		"posting_id", result.PostingID.String(),
		"interest", result.Accrual.InterestAmount.StringFixed(2),
		"cumulative_interest", result.CumulativeInterest.StringFixed(2),
	)
	return nil
}

// FailureReasonFor classifies a business error from the capital service. The second
// result is false for errors that are worth retrying.
func FailureReasonFor(err error) (shared.FailureReason, bool) {
	switch {
	case errors.Is(err, shared.ErrNotFound{}):
		return shared.FailureReasonLoanNoteNotFound, true
	case errors.Is(err, shared.ErrPrecondition{}):
		return shared.FailureReasonPrecondition, true
	case errors.Is(err, shared.ErrInvalidPeriod{}):
		return shared.FailureReasonInvalidPeriod, true
	case errors.Is(err, shared.ErrZeroOrNegativeResult{}):
		return shared.FailureReasonZeroInterest, true
	case errors.Is(err, shared.ErrRateNotFound{}):
		return shared.FailureReasonRateNotFound, true
	case errors.Is(err, shared.ErrAccountClassification{}):
		return shared.FailureReasonAccountMisconfig, true
	case errors.Is(err, shared.ErrPostingImbalance{}):
		return shared.FailureReasonPostingImbalance, true
	case errors.Is(err, shared.ErrInsufficientTerms{}), errors.Is(err, shared.ErrInvalidAmount), errors.Is(err, shared.ErrInvalidCurrency):
		return shared.FailureReasonInvalidRequest, true
	}
	return shared.FailureReasonUnknownError, false
}
