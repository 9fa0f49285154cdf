package service

import (
	"context"
	"errors"

	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnprocessable marks a request that was recorded as failed but must also be parked on the DLQ
var ErrUnprocessable = errors.New("accrual request cannot be processed")

// ProcessingService defines the interface for processing queued accrual requests.
type ProcessingService interface {
	ProcessAccrualRequest(ctx context.Context, request *shared.AccrualRequest) error
}

// InterestAccruer is the part of the capital service the processor drives
type InterestAccruer interface {
	AccrueInterest(ctx context.Context, in capital.AccrualInput) (*capital.AccrualResult, error)
}

// RequestValidator validates accrual requests before processing
type RequestValidator interface {
	Validate(ctx context.Context, request *shared.AccrualRequest) error
	CheckIdempotency(ctx context.Context, request *shared.AccrualRequest) (bool, error)
}

// RunRecorder keeps the accrual run document of a request current
type RunRecorder interface {
	RecordPending(ctx context.Context, request *shared.AccrualRequest) (*accrualrun.Run, error)
	RecordCompleted(ctx context.Context, run *accrualrun.Run, postingID uuid.UUID, interest decimal.Decimal) error
	RecordFailure(ctx context.Context, request *shared.AccrualRequest, reason shared.FailureReason, detail string) error
}
