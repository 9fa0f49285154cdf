package accrualrun

import (
	"context"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Run tracks one accrual request from the queue through to its posting
type Run struct {
	RequestID      uuid.UUID               `json:"request_id"`
	LoanNoteID     uuid.UUID               `json:"loan_note_id"`
	AsOfDate       time.Time               `json:"as_of_date"`
	ExchangeRate   *decimal.Decimal        `json:"exchange_rate,omitempty"`
	CorrelationID  string                  `json:"correlation_id,omitempty"`
	Status         shared.AccrualRunStatus `json:"status"`
	FailureReason  string                  `json:"failure_reason,omitempty"`
	PostingID      *uuid.UUID              `json:"posting_id,omitempty"`
	InterestAmount decimal.Decimal         `json:"interest_amount"`
	CreatedAt      time.Time               `json:"created_at"`
	ProcessedAt    *time.Time              `json:"processed_at,omitempty"`
}

// NewRun creates a pending run from a queued request
func NewRun(req *shared.AccrualRequest) *Run {
	return &Run{
		RequestID:     req.RequestID,
		LoanNoteID:    req.LoanNoteID,
		AsOfDate:      shared.NormalizeDate(req.AsOfDate),
		ExchangeRate:  req.ExchangeRate,
		CorrelationID: req.CorrelationID,
		Status:        shared.AccrualRunStatusPending,
		CreatedAt:     time.Now(),
	}
}

// Complete records the posting produced for the request
func (r *Run) Complete(postingID uuid.UUID, interest decimal.Decimal) {
	now := time.Now()
	r.Status = shared.AccrualRunStatusCompleted
	r.PostingID = &postingID
	r.InterestAmount = interest
	r.ProcessedAt = &now
}

// Fail records why the request could not be processed
func (r *Run) Fail(reason string) {
	now := time.Now()
	r.Status = shared.AccrualRunStatusFailed
	r.FailureReason = reason
	r.ProcessedAt = &now
}

// Finished reports whether the run reached a terminal status
func (r *Run) Finished() bool {
	return r.Status == shared.AccrualRunStatusCompleted || r.Status == shared.AccrualRunStatusFailed
}

// Repository manages accrual run persistence
type Repository interface {
	Upsert(ctx context.Context, run *Run) error
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*Run, error)
	ListByLoanNote(ctx context.Context, loanNoteID uuid.UUID, limit, offset int) ([]*Run, error)
}

// ErrRunNotFound indicates missing accrual run
type ErrRunNotFound struct {
	RequestID uuid.UUID
}

func (e ErrRunNotFound) Error() string {
	return "accrual run not found: " + e.RequestID.String()
}

// Is implements the errors.Is interface for ErrRunNotFound
func (e ErrRunNotFound) Is(target error) bool {
	t, ok := target.(ErrRunNotFound)
	if !ok {
		return false
	}
	if t.RequestID == uuid.Nil {
		return true
	}
	return e.RequestID == t.RequestID
}
