package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/equity-capital-ledger/internal/capital_processor/service"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RunRecorderImpl struct {
	runs   accrualrun.Repository
	logger *slog.Logger
}

func NewRunRecorder(runs accrualrun.Repository, logger *slog.Logger) service.RunRecorder {
	return &RunRecorderImpl{
		runs:   runs,
		logger: logger,
	}
}

// RecordPending stores a PENDING run for the request, reusing one left by an earlier delivery
func (r *RunRecorderImpl) RecordPending(ctx context.Context, request *shared.AccrualRequest) (*accrualrun.Run, error) {
	existing, err := r.runs.GetByRequestID(ctx, request.RequestID)
	if err == nil && !existing.Finished() {
		return existing, nil
	}
	if err != nil && !errors.Is(err, accrualrun.ErrRunNotFound{}) {
		return nil, err
	}

	run := accrualrun.NewRun(request)
	if err := r.runs.Upsert(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *RunRecorderImpl) RecordCompleted(ctx context.Context, run *accrualrun.Run, postingID uuid.UUID, interest decimal.Decimal) error {
	run.Complete(postingID, interest)
	if err := r.runs.Upsert(ctx, run); err != nil {
		r.logger.Error("Failed to mark accrual run COMPLETED", "request_id", run.RequestID.String(), "error", err)
		return err
	}
	return nil
}

// RecordFailure marks the request's run FAILED, creating the run if the request never got one
func (r *RunRecorderImpl) RecordFailure(ctx context.Context, request *shared.AccrualRequest, reason shared.FailureReason, detail string) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	run, err := r.runs.GetByRequestID(ctx, request.RequestID)
	if err != nil {
		if !errors.Is(err, accrualrun.ErrRunNotFound{}) {
			logger.Error("Failed to get existing accrual run for failed request", "request_id", request.RequestID.String(), "error", err)
		}
		run = accrualrun.NewRun(request)
	}

	if run.Status == shared.AccrualRunStatusFailed {
		logger.Info("Accrual run already marked as FAILED", "request_id", request.RequestID.String())
		return nil
	}

	failure := string(reason)
	if detail != "" {
		failure += ": " + detail
	}
	run.Fail(failure)

	if err := r.runs.Upsert(ctx, run); err != nil {
		logger.Error("Failed to record FAILED accrual run", "request_id", request.RequestID.String(), "error", err)
		return err
	}
	logger.Info("Recorded failed accrual run", "request_id", request.RequestID.String(), "reason", reason)
	return nil
}
