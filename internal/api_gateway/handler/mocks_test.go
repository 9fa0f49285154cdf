package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/equity-capital-ledger/internal/capital/cascade"
	"github.com/equity-capital-ledger/internal/capital/register"
	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/agreement"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCapitalService struct {
	mock.Mock
}

func (m *MockCapitalService) CreateAgreement(ctx context.Context, a *agreement.Agreement) (*agreement.Agreement, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agreement.Agreement), args.Error(1)
}

func (m *MockCapitalService) SubmitAgreement(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agreement.Agreement), args.Error(1)
}

func (m *MockCapitalService) GetAgreement(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agreement.Agreement), args.Error(1)
}

func (m *MockCapitalService) IssueShares(ctx context.Context, agreementID uuid.UUID) (*movement.Movement, error) {
	args := m.Called(ctx, agreementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockCapitalService) RecordMovement(ctx context.Context, mv *movement.Movement) (*movement.Movement, error) {
	args := m.Called(ctx, mv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockCapitalService) GetMovement(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockCapitalService) PostPayment(ctx context.Context, movementID uuid.UUID) (*ledger.Posting, error) {
	args := m.Called(ctx, movementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Posting), args.Error(1)
}

func (m *MockCapitalService) CreateLoanNote(ctx context.Context, n *loannote.LoanNote) (*loannote.LoanNote, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loannote.LoanNote), args.Error(1)
}

func (m *MockCapitalService) SubmitLoanNote(ctx context.Context, id uuid.UUID) (*loannote.LoanNote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loannote.LoanNote), args.Error(1)
}

func (m *MockCapitalService) GetLoanNote(ctx context.Context, id uuid.UUID) (*loannote.LoanNote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loannote.LoanNote), args.Error(1)
}

func (m *MockCapitalService) DisburseLoan(ctx context.Context, loanNoteID uuid.UUID) (*ledger.Posting, error) {
	args := m.Called(ctx, loanNoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Posting), args.Error(1)
}

func (m *MockCapitalService) AccrueInterest(ctx context.Context, in capital.AccrualInput) (*capital.AccrualResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capital.AccrualResult), args.Error(1)
}

func (m *MockCapitalService) ConvertLoan(ctx context.Context, in capital.ConversionInput) (*capital.ConversionResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capital.ConversionResult), args.Error(1)
}

func (m *MockCapitalService) GetPosting(ctx context.Context, id uuid.UUID) (*ledger.Posting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Posting), args.Error(1)
}

func (m *MockCapitalService) Cancel(ctx context.Context, ref cascade.Ref) (*cascade.Report, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cascade.Report), args.Error(1)
}

func (m *MockCapitalService) Delete(ctx context.Context, ref cascade.Ref) (*cascade.Report, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cascade.Report), args.Error(1)
}

func (m *MockCapitalService) HoldingsReport(ctx context.Context, company string, asOf time.Time, shareClass string) ([]register.Holding, error) {
	args := m.Called(ctx, company, asOf, shareClass)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]register.Holding), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, name, company string, rootType shared.RootType, currency string) (*account.Account, error) {
	args := m.Called(ctx, name, company, rootType, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, company string) ([]*account.Account, error) {
	args := m.Called(ctx, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

type MockAccrualService struct {
	mock.Mock
}

func (m *MockAccrualService) EnqueueAccrual(ctx context.Context, loanNoteID uuid.UUID, asOf time.Time, exchangeRate *decimal.Decimal) (*shared.AccrualRequest, error) {
	args := m.Called(ctx, loanNoteID, asOf, exchangeRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.AccrualRequest), args.Error(1)
}

func (m *MockAccrualService) EnqueueBatch(ctx context.Context, loanNoteIDs []uuid.UUID, asOf time.Time) ([]*shared.AccrualRequest, error) {
	args := m.Called(ctx, loanNoteIDs, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.AccrualRequest), args.Error(1)
}

func (m *MockAccrualService) GetRun(ctx context.Context, requestID uuid.UUID) (*accrualrun.Run, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accrualrun.Run), args.Error(1)
}

func (m *MockAccrualService) ListRuns(ctx context.Context, loanNoteID uuid.UUID, page, perPage int) ([]*accrualrun.Run, error) {
	args := m.Called(ctx, loanNoteID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accrualrun.Run), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetAccountPostings(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Posting, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Posting), args.Get(1).(int64), args.Error(2)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the response envelope and decodes its data field into out
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) Response {
	t.Helper()
	var envelope struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	if out != nil {
		require.NotEmpty(t, envelope.Data, "'data' field should not be empty")
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *ErrorInfo {
	t.Helper()
	var envelope Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error
}
