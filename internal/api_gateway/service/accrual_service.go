package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccrualServiceImpl implements AccrualService
type AccrualServiceImpl struct {
	logger     *slog.Logger
	publisher  producers.AccrualPublisher
	runs       accrualrun.Repository
	batchLimit int
}

// NewAccrualService creates the service; batchLimit caps the loan notes in one batch enqueue
func NewAccrualService(logger *slog.Logger, publisher producers.AccrualPublisher, runs accrualrun.Repository, batchLimit int) AccrualService {
	return &AccrualServiceImpl{
		logger:     logger,
		publisher:  publisher,
		runs:       runs,
		batchLimit: batchLimit,
	}
}

func (s *AccrualServiceImpl) EnqueueAccrual(ctx context.Context, loanNoteID uuid.UUID, asOf time.Time, exchangeRate *decimal.Decimal) (*shared.AccrualRequest, error) {
	req := &shared.AccrualRequest{
		RequestID:     uuid.New(),
		LoanNoteID:    loanNoteID,
		AsOfDate:      shared.NormalizeDate(asOf),
		ExchangeRate:  exchangeRate,
		CorrelationID: shared.CorrelationID(ctx),
		Timestamp:     time.Now().UTC(),
	}

	if err := s.publisher.PublishAccrualRequest(ctx, req); err != nil {
		s.logger.Error("Failed to publish accrual request",
			"request_id", req.RequestID.String(),
			"loan_note_id", loanNoteID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to enqueue accrual for loan note %s: %w", loanNoteID, err)
	}

	s.logger.Info("Accrual request enqueued",
		"request_id", req.RequestID.String(),
		"loan_note_id", loanNoteID.String(),
		"correlation_id", req.CorrelationID,
	)
	return req, nil
}

func (s *AccrualServiceImpl) EnqueueBatch(ctx context.Context, loanNoteIDs []uuid.UUID, asOf time.Time) ([]*shared.AccrualRequest, error) {
	if s.batchLimit > 0 && len(loanNoteIDs) > s.batchLimit {
		return nil, fmt.Errorf("%w: %d given, limit %d", ErrBatchTooLarge, len(loanNoteIDs), s.batchLimit)
	}

	requests := make([]*shared.AccrualRequest, 0, len(loanNoteIDs))
	for _, id := range loanNoteIDs {
		req, err := s.EnqueueAccrual(ctx, id, asOf, nil)
		if err != nil {
			return requests, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (s *AccrualServiceImpl) GetRun(ctx context.Context, requestID uuid.UUID) (*accrualrun.Run, error) {
	return s.runs.GetByRequestID(ctx, requestID)
}

func (s *AccrualServiceImpl) ListRuns(ctx context.Context, loanNoteID uuid.UUID, page, perPage int) ([]*accrualrun.Run, error) {
	offset := (page - 1) * perPage
	return s.runs.ListByLoanNote(ctx, loanNoteID, perPage, offset)
}
