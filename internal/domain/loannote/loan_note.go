package loannote

import (
	"errors"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/domain/shareholder"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the business state of a convertible loan note
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusConverted Status = "CONVERTED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrNonPositivePrincipal = errors.New("principal amount must be positive")
	ErrNegativeInterestRate = errors.New("interest rate cannot be negative")
	ErrInvalidMethod        = errors.New("interest method must be SIMPLE or COMPOUND")
	ErrInvalidDiscount      = errors.New("discount rate must be between 0 and 100")
	ErrInvalidCap           = errors.New("valuation cap must be positive when given")
	ErrNonPositivePar       = errors.New("par value must be positive")
	ErrMissingAccount       = errors.New("bank, loan liability, interest expense and share capital accounts are required")
	ErrAccruedMismatch      = errors.New("accrued interest does not equal the sum of accrual records")
)

// LoanNote is a convertible loan note: a loan from a lender that accrues interest and converts into equity
type LoanNote struct {
	ID                       uuid.UUID             `json:"id"`
	Company                  string                `json:"company"`
	LenderID                 uuid.UUID             `json:"lender_id"`
	IssueDate                time.Time             `json:"issue_date"`
	PrincipalAmount          decimal.Decimal       `json:"principal_amount"`
	InterestRate             decimal.Decimal       `json:"interest_rate"` // annual, percent
	InterestMethod           shared.InterestMethod `json:"interest_method"`
	Currency                 string                `json:"currency"`
	ExchangeRate             decimal.Decimal       `json:"exchange_rate"` // zero means resolve per event
	ValuationCap             *decimal.Decimal      `json:"valuation_cap,omitempty"`
	DiscountRate             *decimal.Decimal      `json:"discount_rate,omitempty"` // percent
	ParValue                 decimal.Decimal       `json:"par_value"`
	ConversionShareClass     string                `json:"conversion_share_class"`
	BankAccountID            uuid.UUID             `json:"bank_account_id"`
	LoanLiabilityAccountID   uuid.UUID             `json:"loan_liability_account_id"`
	InterestExpenseAccountID uuid.UUID             `json:"interest_expense_account_id"`
	InterestPayableAccountID *uuid.UUID            `json:"interest_payable_account_id,omitempty"`
	ShareCapitalAccountID    uuid.UUID             `json:"share_capital_account_id"`
	SharePremiumAccountID    *uuid.UUID            `json:"share_premium_account_id,omitempty"`

	DocStatus             shared.DocStatus `json:"docstatus"`
	Status                Status           `json:"status"`
	AccruedInterest       decimal.Decimal  `json:"accrued_interest"`
	LastAccrualDate       *time.Time       `json:"last_accrual_date,omitempty"`
	Accruals              []*Accrual       `json:"accruals"`
	DisbursementPostingID *uuid.UUID       `json:"disbursement_posting_id,omitempty"`
	ConversionPostingID   *uuid.UUID       `json:"conversion_posting_id,omitempty"`
	MovementID            *uuid.UUID       `json:"movement_id,omitempty"`
	ConversionDate        *time.Time       `json:"conversion_date,omitempty"`
	ConversionPrice       decimal.Decimal  `json:"conversion_price"`
	SharesIssued          int64            `json:"shares_issued"`
	TotalConvertedAmount  decimal.Decimal  `json:"total_converted_amount"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the loan note terms before submission
func (n *LoanNote) Validate() error {
	if !n.PrincipalAmount.IsPositive() {
		return ErrNonPositivePrincipal
	}
	if n.InterestRate.IsNegative() {
		return ErrNegativeInterestRate
	}
	if !n.InterestMethod.Valid() {
		return ErrInvalidMethod
	}
	if _, err := shared.NormalizeCurrency(n.Currency); err != nil {
		return err
	}
	if n.DiscountRate != nil && (!n.DiscountRate.IsPositive() || n.DiscountRate.GreaterThanOrEqual(decimal.NewFromInt(100))) {
		return ErrInvalidDiscount
	}
	if n.ValuationCap != nil && !n.ValuationCap.IsPositive() {
		return ErrInvalidCap
	}
	if !n.ParValue.IsPositive() {
		return ErrNonPositivePar
	}
	if n.BankAccountID == uuid.Nil || n.LoanLiabilityAccountID == uuid.Nil ||
		n.InterestExpenseAccountID == uuid.Nil || n.ShareCapitalAccountID == uuid.Nil {
		return ErrMissingAccount
	}
	return nil
}

// Submit validates a draft loan note; it becomes ACTIVE when disbursed
func (n *LoanNote) Submit() error {
	if n.DocStatus != shared.DocStatusDraft {
		return n.precondition("only draft loan notes can be submitted")
	}
	if err := n.Validate(); err != nil {
		return err
	}
	n.DocStatus = shared.DocStatusSubmitted
	n.touch()
	return nil
}

// CanDisburse checks that the principal has not been disbursed yet
func (n *LoanNote) CanDisburse() error {
	if n.DisbursementPostingID != nil {
		return shared.ErrAlreadyExists{Record: "loan note", ID: n.ID, Existing: shared.DocumentKindPosting, ExistingID: *n.DisbursementPostingID}
	}
	if n.DocStatus != shared.DocStatusSubmitted || n.Status != StatusDraft {
		return n.precondition("loan note must be submitted and not yet active, is " + string(n.Status))
	}
	return nil
}

// Activate records the disbursement posting and makes the note ACTIVE
func (n *LoanNote) Activate(postingID uuid.UUID) {
	n.DisbursementPostingID = &postingID
	n.Status = StatusActive
	n.touch()
}

// CanAccrue checks that interest may accrue on the note
func (n *LoanNote) CanAccrue() error {
	if n.Status != StatusActive {
		return n.precondition("interest accrues only on ACTIVE loan notes, is " + string(n.Status))
	}
	return nil
}

// AccrualStart is the first day of the next accrual period
func (n *LoanNote) AccrualStart() time.Time {
	if n.LastAccrualDate != nil {
		return *n.LastAccrualDate
	}
	return n.IssueDate
}

// ApplyAccrual appends an accrual record and advances the cumulative interest and last accrual date
func (n *LoanNote) ApplyAccrual(a *Accrual) {
	n.AccruedInterest = n.AccruedInterest.Add(a.InterestAmount)
	a.LoanNoteID = n.ID
	a.Sequence = len(n.Accruals) + 1
	a.CumulativeInterest = n.AccruedInterest
	to := a.ToDate
	n.LastAccrualDate = &to
	n.Accruals = append(n.Accruals, a)
	n.touch()
}

// VerifyAccruedInterest checks the cumulative accrued interest against the accrual records
func (n *LoanNote) VerifyAccruedInterest() error {
	sum := decimal.Zero
	for _, a := range n.Accruals {
		sum = sum.Add(a.InterestAmount)
	}
	if !sum.Equal(n.AccruedInterest) {
		return ErrAccruedMismatch
	}
	return nil
}

// CanConvert checks that the note is active and not already converted
func (n *LoanNote) CanConvert() error {
	if n.ConversionPostingID != nil {
		return shared.ErrAlreadyExists{Record: "loan note", ID: n.ID, Existing: shared.DocumentKindPosting, ExistingID: *n.ConversionPostingID}
	}
	if n.MovementID != nil {
		return shared.ErrAlreadyExists{Record: "loan note", ID: n.ID, Existing: shared.DocumentKindMovement, ExistingID: *n.MovementID}
	}
	if n.Status != StatusActive {
		return n.precondition("only ACTIVE loan notes can convert, is " + string(n.Status))
	}
	return nil
}

// Conversion holds the outcome of converting a loan note into shares
type Conversion struct {
	Date        time.Time
	Price       decimal.Decimal
	Shares      int64
	TotalAmount decimal.Decimal
	PostingID   uuid.UUID
	MovementID  uuid.UUID
}

// MarkConverted records the conversion and takes the note out of the ACTIVE set
func (n *LoanNote) MarkConverted(c Conversion) {
	date := c.Date
	n.ConversionDate = &date
	n.ConversionPrice = c.Price
	n.SharesIssued = c.Shares
	n.TotalConvertedAmount = c.TotalAmount
	n.ConversionPostingID = &c.PostingID
	n.MovementID = &c.MovementID
	n.Status = StatusConverted
	n.touch()
}

// InterestPayableAccount returns the account that carries accrued interest
func (n *LoanNote) InterestPayableAccount() uuid.UUID {
	if n.InterestPayableAccountID != nil && *n.InterestPayableAccountID != uuid.Nil {
		return *n.InterestPayableAccountID
	}
	return n.LoanLiabilityAccountID
}

// PostingLinks returns the live posting references in cancellation order:
// conversion posting, accrual postings, disbursement posting.
func (n *LoanNote) PostingLinks() []uuid.UUID {
	var refs []uuid.UUID
	if n.ConversionPostingID != nil {
		refs = append(refs, *n.ConversionPostingID)
	}
	for _, a := range n.Accruals {
		if a.PostingID != nil {
			refs = append(refs, *a.PostingID)
		}
	}
	if n.DisbursementPostingID != nil {
		refs = append(refs, *n.DisbursementPostingID)
	}
	return refs
}

// ClearPosting drops every reference to postingID. It returns the accrual whose
// posting reference was cleared, if any.
func (n *LoanNote) ClearPosting(postingID uuid.UUID) *Accrual {
	var cleared *Accrual
	if n.DisbursementPostingID != nil && *n.DisbursementPostingID == postingID {
		n.DisbursementPostingID = nil
	}
	if n.ConversionPostingID != nil && *n.ConversionPostingID == postingID {
		n.ConversionPostingID = nil
	}
	for _, a := range n.Accruals {
		if a.PostingID != nil && *a.PostingID == postingID {
			a.PostingID = nil
			cleared = a
		}
	}
	n.touch()
	return cleared
}

// ClearMovement drops the conversion movement reference
func (n *LoanNote) ClearMovement() {
	n.MovementID = nil
	n.touch()
}

// Cancel marks a submitted loan note as cancelled
func (n *LoanNote) Cancel() error {
	if n.DocStatus != shared.DocStatusSubmitted {
		return n.precondition("only submitted loan notes can be cancelled")
	}
	n.DocStatus = shared.DocStatusCancelled
	n.Status = StatusCancelled
	n.touch()
	return nil
}

// LenderAggregate computes the denormalized shareholder summary from the lender's loan notes.
// Only ACTIVE notes count.
func LenderAggregate(notes []*LoanNote) shareholder.CLNAggregate {
	agg := shareholder.CLNAggregate{TotalPrincipal: decimal.Zero}
	for _, n := range notes {
		if n.Status != StatusActive {
			continue
		}
		agg.HasConvertibleLoans = true
		agg.TotalPrincipal = agg.TotalPrincipal.Add(n.PrincipalAmount)
	}
	return agg
}

func (n *LoanNote) precondition(reason string) error {
	return shared.ErrPrecondition{Record: "loan note", ID: n.ID, Reason: reason}
}

func (n *LoanNote) touch() {
	n.UpdatedAt = time.Now()
}
