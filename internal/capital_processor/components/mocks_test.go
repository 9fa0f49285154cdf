package components

import (
	"context"
	"io"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Upsert(ctx context.Context, run *accrualrun.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepo) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*accrualrun.Run, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accrualrun.Run), args.Error(1)
}

func (m *MockRunRepo) ListByLoanNote(ctx context.Context, loanNoteID uuid.UUID, limit, offset int) ([]*accrualrun.Run, error) {
	args := m.Called(ctx, loanNoteID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accrualrun.Run), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
