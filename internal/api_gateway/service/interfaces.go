package service

import (
	"context"
	"errors"
	"time"

	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrBatchTooLarge is returned when a batch accrual names more loan notes than allowed
var ErrBatchTooLarge = errors.New("too many loan notes in accrual batch")

// AccountService defines the chart of accounts operations
type AccountService interface {
	// CreateAccount creates a ledger account for an existing company
	// Returns shared.ErrNotFound if the company doesn't exist
	CreateAccount(ctx context.Context, name, company string, rootType shared.RootType, currency string) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	ListAccounts(ctx context.Context, company string) ([]*account.Account, error)
}

// AccrualService queues interest accruals for the capital processor and reads their outcome
type AccrualService interface {
	// EnqueueAccrual publishes one accrual request and returns it with its request id
	EnqueueAccrual(ctx context.Context, loanNoteID uuid.UUID, asOf time.Time, exchangeRate *decimal.Decimal) (*shared.AccrualRequest, error)

	// EnqueueBatch publishes one request per loan note, stopping at the first publish failure.
	// Returns ErrBatchTooLarge when the batch exceeds the configured limit.
	EnqueueBatch(ctx context.Context, loanNoteIDs []uuid.UUID, asOf time.Time) ([]*shared.AccrualRequest, error)

	// GetRun returns accrualrun.ErrRunNotFound until the processor has picked the request up
	GetRun(ctx context.Context, requestID uuid.UUID) (*accrualrun.Run, error)

	ListRuns(ctx context.Context, loanNoteID uuid.UUID, page, perPage int) ([]*accrualrun.Run, error)
}

// LedgerService reads the general ledger projection
type LedgerService interface {
	// GetAccountPostings returns one page of postings touching the account and the total count
	GetAccountPostings(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Posting, int64, error)
}
