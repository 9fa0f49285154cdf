// Package service runs capital events against the relational store: each operation
// loads its records, applies the domain rules and writes the derived records and
// ledger postings in one transaction.
package service

import (
	"context"
	"time"

	"github.com/equity-capital-ledger/internal/capital/cascade"
	"github.com/equity-capital-ledger/internal/capital/register"
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/agreement"
	"github.com/equity-capital-ledger/internal/domain/company"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/outbox"
	"github.com/equity-capital-ledger/internal/domain/shareholder"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CapitalService defines the capital event operations
type CapitalService interface {
	CreateAgreement(ctx context.Context, a *agreement.Agreement) (*agreement.Agreement, error)
	SubmitAgreement(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error)
	GetAgreement(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error)

	// IssueShares creates the share movement for a submitted agreement.
	// Returns shared.ErrAlreadyExists if the agreement already has one.
	IssueShares(ctx context.Context, agreementID uuid.UUID) (*movement.Movement, error)

	// RecordMovement records a manual transfer, buyback or issuance
	RecordMovement(ctx context.Context, m *movement.Movement) (*movement.Movement, error)
	GetMovement(ctx context.Context, id uuid.UUID) (*movement.Movement, error)

	// PostPayment creates the payment posting of a cash issuance or buyback movement
	PostPayment(ctx context.Context, movementID uuid.UUID) (*ledger.Posting, error)

	CreateLoanNote(ctx context.Context, n *loannote.LoanNote) (*loannote.LoanNote, error)
	SubmitLoanNote(ctx context.Context, id uuid.UUID) (*loannote.LoanNote, error)
	GetLoanNote(ctx context.Context, id uuid.UUID) (*loannote.LoanNote, error)

	// DisburseLoan posts the principal received and makes the note ACTIVE
	DisburseLoan(ctx context.Context, loanNoteID uuid.UUID) (*ledger.Posting, error)
	// AccrueInterest accrues interest from the last accrual date up to the as-of date
	AccrueInterest(ctx context.Context, in AccrualInput) (*AccrualResult, error)
	// ConvertLoan converts principal plus accrued interest into shares
	ConvertLoan(ctx context.Context, in ConversionInput) (*ConversionResult, error)

	GetPosting(ctx context.Context, id uuid.UUID) (*ledger.Posting, error)

	// Cancel unwinds a record and everything derived from it
	Cancel(ctx context.Context, ref cascade.Ref) (*cascade.Report, error)
	// Delete removes a cancelled record and its cancelled descendants
	Delete(ctx context.Context, ref cascade.Ref) (*cascade.Report, error)

	HoldingsReport(ctx context.Context, company string, asOf time.Time, shareClass string) ([]register.Holding, error)
}

// TxRunner runs fn inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Repositories bundles the relational store repositories used by the service
type Repositories struct {
	Companies    company.Repository
	Accounts     account.Repository
	Shareholders shareholder.Repository
	Agreements   agreement.Repository
	LoanNotes    loannote.Repository
	Movements    movement.Repository
	Postings     ledger.Repository
	Outbox       outbox.Repository
}

// WithTx binds every transactional repository to tx
func (r Repositories) WithTx(tx pgx.Tx) Repositories {
	return Repositories{
		Companies:    r.Companies,
		Accounts:     r.Accounts.WithTx(tx),
		Shareholders: r.Shareholders.WithTx(tx),
		Agreements:   r.Agreements.WithTx(tx),
		LoanNotes:    r.LoanNotes.WithTx(tx),
		Movements:    r.Movements.WithTx(tx),
		Postings:     r.Postings.WithTx(tx),
		Outbox:       r.Outbox.WithTx(tx),
	}
}

// AccrualInput requests an accrual up to AsOfDate. ExchangeRate, when given,
// converts the loan currency into the company base currency.
type AccrualInput struct {
	LoanNoteID   uuid.UUID
	AsOfDate     time.Time
	ExchangeRate *decimal.Decimal
}

// AccrualResult is the accrual record written and the loan note totals after it
type AccrualResult struct {
	Accrual            *loannote.Accrual `json:"accrual"`
	PostingID          uuid.UUID         `json:"posting_id"`
	CumulativeInterest decimal.Decimal   `json:"cumulative_interest"`
	RecordCount        int               `json:"record_count"`
}

// ConversionInput carries the next funding round terms used to price a conversion
type ConversionInput struct {
	LoanNoteID         uuid.UUID
	ConversionDate     time.Time
	NextRoundPrice     *decimal.Decimal
	FullyDilutedShares *decimal.Decimal
}

// ConversionResult describes the shares issued on conversion
type ConversionResult struct {
	PostingID            uuid.UUID       `json:"posting_id"`
	MovementID           uuid.UUID       `json:"movement_id"`
	ConversionPrice      decimal.Decimal `json:"conversion_price"`
	SharesIssued         int64           `json:"shares_issued"`
	TotalConvertedAmount decimal.Decimal `json:"total_converted_amount"`
}
