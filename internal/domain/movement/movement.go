package movement

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the business state of a share movement
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusIssued    Status = "ISSUED"
	StatusCancelled Status = "CANCELLED"
)

// SharesPerCertificate is the number of shares covered by one share certificate
const SharesPerCertificate = 100

var (
	ErrInvalidKind       = errors.New("unknown movement kind")
	ErrNoShares          = errors.New("number of shares must be positive")
	ErrNonPositivePar    = errors.New("par value must be positive")
	ErrPriceBelowPar     = errors.New("price per share cannot be below par value")
	ErrMissingParty      = errors.New("movement is missing a shareholder")
	ErrMissingShareClass = errors.New("share class is required")
	ErrConversionSource  = errors.New("CLN conversion movements can only be created from a loan note")
)

// Source identifies the document a movement was derived from
type Source struct {
	Kind shared.DocumentKind `json:"kind"`
	ID   uuid.UUID           `json:"id"`
}

// Movement records shares changing hands: issuance, transfer, buyback or conversion
type Movement struct {
	ID                    uuid.UUID           `json:"id"`
	Company               string              `json:"company"`
	Kind                  shared.MovementKind `json:"kind"`
	TransactionDate       time.Time           `json:"transaction_date"`
	PaymentDate           *time.Time          `json:"payment_date,omitempty"`
	FromShareholderID     *uuid.UUID          `json:"from_shareholder_id,omitempty"`
	ToShareholderID       *uuid.UUID          `json:"to_shareholder_id,omitempty"`
	ShareClass            string              `json:"share_class"`
	NumberOfShares        int64               `json:"number_of_shares"`
	ParValue              decimal.Decimal     `json:"par_value"`
	PricePerShare         decimal.Decimal     `json:"price_per_share"`
	Currency              string              `json:"currency"`
	ExchangeRate          decimal.Decimal     `json:"exchange_rate"`
	BaseCurrency          string              `json:"base_currency"`
	TotalAmount           decimal.Decimal     `json:"total_amount"`
	TotalAmountBase       decimal.Decimal     `json:"total_amount_base"`
	ShareCapitalAmount    decimal.Decimal     `json:"share_capital_amount"`
	SharePremiumAmount    decimal.Decimal     `json:"share_premium_amount"`
	BankAccountID         *uuid.UUID          `json:"bank_account_id,omitempty"`
	ShareCapitalAccountID *uuid.UUID          `json:"share_capital_account_id,omitempty"`
	SharePremiumAccountID *uuid.UUID          `json:"share_premium_account_id,omitempty"`
	CertificateNumbers    string              `json:"certificate_numbers,omitempty"`
	ConversionDetails     string              `json:"conversion_details,omitempty"`
	Remarks               string              `json:"remarks,omitempty"`
	Source                *Source             `json:"source,omitempty"`
	PostingID             *uuid.UUID          `json:"posting_id,omitempty"`
	DocStatus             shared.DocStatus    `json:"docstatus"`
	Status                Status              `json:"status"`
	Version               int                 `json:"version"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// ComputeAmounts derives total, capital, premium and base total from count, price, par and rate.
// A zero exchange rate is treated as 1 when the currencies match.
func (m *Movement) ComputeAmounts() {
	count := decimal.NewFromInt(m.NumberOfShares)
	m.TotalAmount = count.Mul(m.PricePerShare)
	m.ShareCapitalAmount = count.Mul(m.ParValue)
	m.SharePremiumAmount = m.TotalAmount.Sub(m.ShareCapitalAmount)
	if m.ExchangeRate.IsZero() && m.Currency == m.BaseCurrency {
		m.ExchangeRate = decimal.NewFromInt(1)
	}
	m.TotalAmountBase = shared.RoundAmount(m.TotalAmount.Mul(m.ExchangeRate))
}

// Validate checks kind-specific parties and the amount invariants
func (m *Movement) Validate() error {
	if !m.Kind.Valid() {
		return ErrInvalidKind
	}
	if m.NumberOfShares <= 0 {
		return ErrNoShares
	}
	if m.ShareClass == "" {
		return ErrMissingShareClass
	}
	if !m.ParValue.IsPositive() {
		return ErrNonPositivePar
	}
	if m.Kind != shared.MovementKindBonusIssue && m.PricePerShare.LessThan(m.ParValue) {
		return ErrPriceBelowPar
	}
	if m.Kind == shared.MovementKindCLNConversion && (m.Source == nil || m.Source.Kind != shared.DocumentKindLoanNote) {
		return ErrConversionSource
	}
	switch {
	case m.Kind.IsIssuance():
		if m.ToShareholderID == nil {
			return ErrMissingParty
		}
	case m.Kind == shared.MovementKindShareBuyback:
		if m.FromShareholderID == nil {
			return ErrMissingParty
		}
	case m.Kind == shared.MovementKindShareTransfer:
		if m.FromShareholderID == nil || m.ToShareholderID == nil {
			return ErrMissingParty
		}
	}
	if _, err := shared.NormalizeCurrency(m.Currency); err != nil {
		return err
	}
	count := decimal.NewFromInt(m.NumberOfShares)
	if !m.TotalAmount.Equal(count.Mul(m.PricePerShare)) ||
		!m.ShareCapitalAmount.Equal(count.Mul(m.ParValue)) ||
		!m.SharePremiumAmount.Equal(m.TotalAmount.Sub(m.ShareCapitalAmount)) {
		return shared.ErrPrecondition{Record: "movement", ID: m.ID, Reason: "amounts do not match count, price and par"}
	}
	return nil
}

// CanPostPayment checks that a payment posting may be created for the movement
func (m *Movement) CanPostPayment() error {
	if m.PostingID != nil {
		return shared.ErrAlreadyExists{Record: "movement", ID: m.ID, Existing: shared.DocumentKindPosting, ExistingID: *m.PostingID}
	}
	if m.DocStatus != shared.DocStatusSubmitted {
		return shared.ErrPrecondition{Record: "movement", ID: m.ID, Reason: "movement must be submitted, is " + m.DocStatus.String()}
	}
	if !m.Kind.IsCashInflow() && m.Kind != shared.MovementKindShareBuyback {
		return shared.ErrPrecondition{Record: "movement", ID: m.ID, Reason: "payment posting not applicable to " + string(m.Kind)}
	}
	return nil
}

// LinkPosting records the posting created for the movement
func (m *Movement) LinkPosting(postingID uuid.UUID) {
	m.PostingID = &postingID
	if m.Kind.IsIssuance() {
		m.Status = StatusIssued
	}
	m.touch()
}

// ClearPosting drops the posting reference; an issued movement goes back to submitted
func (m *Movement) ClearPosting() {
	m.PostingID = nil
	if m.Status == StatusIssued {
		m.Status = StatusSubmitted
	}
	m.touch()
}

// Cancel marks a submitted movement as cancelled
func (m *Movement) Cancel() error {
	if m.DocStatus != shared.DocStatusSubmitted {
		return shared.ErrPrecondition{Record: "movement", ID: m.ID, Reason: "only submitted movements can be cancelled"}
	}
	m.DocStatus = shared.DocStatusCancelled
	m.Status = StatusCancelled
	m.touch()
	return nil
}

func (m *Movement) touch() {
	m.UpdatedAt = time.Now()
}

// CertificateNumbers allocates one certificate per SharesPerCertificate shares (rounded up),
// continuing after the last certificate number issued for the share class.
func CertificateNumbers(shareClass, last string, shares int64) string {
	if shares <= 0 {
		return ""
	}
	next := lastSequence(last) + 1
	count := (shares + SharesPerCertificate - 1) / SharesPerCertificate
	numbers := make([]string, 0, count)
	for i := int64(0); i < count; i++ {
		numbers = append(numbers, fmt.Sprintf("CERT-%s-%05d", strings.ToUpper(shareClass), next+i))
	}
	return strings.Join(numbers, ", ")
}

// lastSequence extracts the trailing number of the last certificate in a list
func lastSequence(list string) int64 {
	if list == "" {
		return 0
	}
	parts := strings.Split(list, ",")
	tail := strings.TrimSpace(parts[len(parts)-1])
	idx := strings.LastIndex(tail, "-")
	n, err := strconv.ParseInt(tail[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
