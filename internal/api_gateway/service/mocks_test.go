package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/company"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByCompany(ctx context.Context, company string) ([]*account.Account, error) {
	args := m.Called(ctx, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(account.Repository)
}

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) GetByName(ctx context.Context, name string) (*company.Company, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

type MockAccrualPublisher struct {
	mock.Mock
}

func (m *MockAccrualPublisher) PublishAccrualRequest(ctx context.Context, req *shared.AccrualRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAccrualPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Upsert(ctx context.Context, run *accrualrun.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*accrualrun.Run, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accrualrun.Run), args.Error(1)
}

func (m *MockRunRepository) ListByLoanNote(ctx context.Context, loanNoteID uuid.UUID, limit, offset int) ([]*accrualrun.Run, error) {
	args := m.Called(ctx, loanNoteID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accrualrun.Run), args.Error(1)
}

type MockGeneralLedger struct {
	mock.Mock
}

func (m *MockGeneralLedger) Upsert(ctx context.Context, p *ledger.Posting) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockGeneralLedger) GetByPostingID(ctx context.Context, postingID uuid.UUID) (*ledger.Posting, error) {
	args := m.Called(ctx, postingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Posting), args.Error(1)
}

func (m *MockGeneralLedger) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Posting, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Posting), args.Error(1)
}

func (m *MockGeneralLedger) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGeneralLedger) MarkCancelled(ctx context.Context, postingID uuid.UUID) error {
	args := m.Called(ctx, postingID)
	return args.Error(0)
}

func (m *MockGeneralLedger) Delete(ctx context.Context, postingID uuid.UUID) error {
	args := m.Called(ctx, postingID)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
