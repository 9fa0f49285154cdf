package agreement

import (
	"errors"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the business state of a capital agreement
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusSubmitted    Status = "SUBMITTED"
	StatusSharesIssued Status = "SHARES_ISSUED"
	StatusCancelled    Status = "CANCELLED"
)

var (
	ErrNoShares          = errors.New("number of shares must be positive")
	ErrNonPositivePar    = errors.New("par value must be positive")
	ErrPriceBelowPar     = errors.New("rate per share cannot be below par value")
	ErrMissingShareClass = errors.New("share class is required")
	ErrMissingAccount    = errors.New("bank and share capital accounts are required")
	ErrMissingPremium    = errors.New("share premium account is required when rate exceeds par")
	ErrNonPositiveRate   = errors.New("exchange rate must be positive when given")
)

// Agreement records the terms under which a shareholder subscribes for new shares
type Agreement struct {
	ID                    uuid.UUID           `json:"id"`
	Company               string              `json:"company"`
	ShareholderID         uuid.UUID           `json:"shareholder_id"`
	ShareClass            string              `json:"share_class"`
	MovementKind          shared.MovementKind `json:"movement_kind"`
	AgreementDate         time.Time           `json:"agreement_date"`
	PaymentDate           *time.Time          `json:"payment_date,omitempty"`
	NumberOfShares        int64               `json:"number_of_shares"`
	ParValue              decimal.Decimal     `json:"par_value"`
	RatePerShare          decimal.Decimal     `json:"rate_per_share"`
	Currency              string              `json:"currency"`
	ExchangeRate          decimal.Decimal     `json:"exchange_rate"` // zero means resolve at agreement date
	BankAccountID         uuid.UUID           `json:"bank_account_id"`
	ShareCapitalAccountID uuid.UUID           `json:"share_capital_account_id"`
	SharePremiumAccountID *uuid.UUID          `json:"share_premium_account_id,omitempty"`
	DocStatus             shared.DocStatus    `json:"docstatus"`
	Status                Status              `json:"status"`
	MovementID            *uuid.UUID          `json:"movement_id,omitempty"`
	Version               int                 `json:"version"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// Validate checks the agreement terms before submission
func (a *Agreement) Validate() error {
	if a.NumberOfShares <= 0 {
		return ErrNoShares
	}
	if !a.ParValue.IsPositive() {
		return ErrNonPositivePar
	}
	if a.RatePerShare.LessThan(a.ParValue) {
		return ErrPriceBelowPar
	}
	if a.ShareClass == "" {
		return ErrMissingShareClass
	}
	if !a.MovementKind.IsCashInflow() {
		return shared.ErrPrecondition{Record: "agreement", ID: a.ID, Reason: "agreement kind must be a cash issuance, got " + string(a.MovementKind)}
	}
	if _, err := shared.NormalizeCurrency(a.Currency); err != nil {
		return err
	}
	if a.ExchangeRate.IsNegative() {
		return ErrNonPositiveRate
	}
	if a.BankAccountID == uuid.Nil || a.ShareCapitalAccountID == uuid.Nil {
		return ErrMissingAccount
	}
	if a.SharePremium().IsPositive() && (a.SharePremiumAccountID == nil || *a.SharePremiumAccountID == uuid.Nil) {
		return ErrMissingPremium
	}
	return nil
}

// TotalAmount is number of shares times rate per share
func (a *Agreement) TotalAmount() decimal.Decimal {
	return decimal.NewFromInt(a.NumberOfShares).Mul(a.RatePerShare)
}

// ShareCapital is number of shares times par value
func (a *Agreement) ShareCapital() decimal.Decimal {
	return decimal.NewFromInt(a.NumberOfShares).Mul(a.ParValue)
}

// SharePremium is the amount paid above par
func (a *Agreement) SharePremium() decimal.Decimal {
	return a.TotalAmount().Sub(a.ShareCapital())
}

// Submit validates and moves a draft agreement to submitted
func (a *Agreement) Submit() error {
	if a.DocStatus != shared.DocStatusDraft {
		return shared.ErrPrecondition{Record: "agreement", ID: a.ID, Reason: "only draft agreements can be submitted"}
	}
	if err := a.Validate(); err != nil {
		return err
	}
	a.DocStatus = shared.DocStatusSubmitted
	a.Status = StatusSubmitted
	a.touch()
	return nil
}

// CanIssueShares checks that shares may be issued against this agreement
func (a *Agreement) CanIssueShares() error {
	if a.MovementID != nil {
		return shared.ErrAlreadyExists{Record: "agreement", ID: a.ID, Existing: shared.DocumentKindMovement, ExistingID: *a.MovementID}
	}
	if a.DocStatus != shared.DocStatusSubmitted {
		return shared.ErrPrecondition{Record: "agreement", ID: a.ID, Reason: "agreement must be submitted, is " + a.DocStatus.String()}
	}
	return nil
}

// MarkSharesIssued links the movement created for this agreement
func (a *Agreement) MarkSharesIssued(movementID uuid.UUID) {
	a.MovementID = &movementID
	a.Status = StatusSharesIssued
	a.touch()
}

// ClearMovement drops the movement reference once the movement is cancelled
func (a *Agreement) ClearMovement() {
	a.MovementID = nil
	if a.DocStatus == shared.DocStatusSubmitted {
		a.Status = StatusSubmitted
	}
	a.touch()
}

// Cancel marks a submitted agreement as cancelled
func (a *Agreement) Cancel() error {
	if a.DocStatus != shared.DocStatusSubmitted {
		return shared.ErrPrecondition{Record: "agreement", ID: a.ID, Reason: "only submitted agreements can be cancelled"}
	}
	a.DocStatus = shared.DocStatusCancelled
	a.Status = StatusCancelled
	a.touch()
	return nil
}

func (a *Agreement) touch() {
	a.UpdatedAt = time.Now()
}
