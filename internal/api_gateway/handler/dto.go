package handler

import (
	"fmt"
	"time"

	"github.com/equity-capital-ledger/internal/capital/register"
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/agreement"
	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents a request to add an account to a company's chart of accounts
type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Company  string `json:"company" binding:"required"`
	RootType string `json:"root_type" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	RootType  string `json:"root_type"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateAgreementRequest carries the subscription terms of a capital agreement
type CreateAgreementRequest struct {
	Company               string          `json:"company" binding:"required"`
	ShareholderID         string          `json:"shareholder_id" binding:"required,uuid"`
	ShareClass            string          `json:"share_class" binding:"required"`
	MovementKind          string          `json:"movement_kind" binding:"required"`
	AgreementDate         string          `json:"agreement_date" binding:"required,datetime=2006-01-02"`
	PaymentDate           string          `json:"payment_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	NumberOfShares        int64           `json:"number_of_shares" binding:"required,gt=0"`
	ParValue              decimal.Decimal `json:"par_value"`
	RatePerShare          decimal.Decimal `json:"rate_per_share"`
	Currency              string          `json:"currency" binding:"required,len=3"`
	ExchangeRate          decimal.Decimal `json:"exchange_rate"`
	BankAccountID         string          `json:"bank_account_id" binding:"required,uuid"`
	ShareCapitalAccountID string          `json:"share_capital_account_id" binding:"required,uuid"`
	SharePremiumAccountID string          `json:"share_premium_account_id,omitempty" binding:"omitempty,uuid"`
}

// RecordMovementRequest carries a manually entered share movement
type RecordMovementRequest struct {
	Company               string          `json:"company" binding:"required"`
	Kind                  string          `json:"kind" binding:"required"`
	TransactionDate       string          `json:"transaction_date" binding:"required,datetime=2006-01-02"`
	PaymentDate           string          `json:"payment_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	FromShareholderID     string          `json:"from_shareholder_id,omitempty" binding:"omitempty,uuid"`
	ToShareholderID       string          `json:"to_shareholder_id,omitempty" binding:"omitempty,uuid"`
	ShareClass            string          `json:"share_class" binding:"required"`
	NumberOfShares        int64           `json:"number_of_shares" binding:"required,gt=0"`
	ParValue              decimal.Decimal `json:"par_value"`
	PricePerShare         decimal.Decimal `json:"price_per_share"`
	Currency              string          `json:"currency" binding:"required,len=3"`
	ExchangeRate          decimal.Decimal `json:"exchange_rate"`
	BankAccountID         string          `json:"bank_account_id,omitempty" binding:"omitempty,uuid"`
	ShareCapitalAccountID string          `json:"share_capital_account_id,omitempty" binding:"omitempty,uuid"`
	SharePremiumAccountID string          `json:"share_premium_account_id,omitempty" binding:"omitempty,uuid"`
	Remarks               string          `json:"remarks,omitempty"`
}

// CreateLoanNoteRequest carries the terms of a convertible loan note
type CreateLoanNoteRequest struct {
	Company                  string           `json:"company" binding:"required"`
	LenderID                 string           `json:"lender_id" binding:"required,uuid"`
	IssueDate                string           `json:"issue_date" binding:"required,datetime=2006-01-02"`
	PrincipalAmount          decimal.Decimal  `json:"principal_amount"`
	InterestRate             decimal.Decimal  `json:"interest_rate"`
	InterestMethod           string           `json:"interest_method" binding:"required,oneof=SIMPLE COMPOUND"`
	Currency                 string           `json:"currency" binding:"required,len=3"`
	ExchangeRate             decimal.Decimal  `json:"exchange_rate"`
	ValuationCap             *decimal.Decimal `json:"valuation_cap,omitempty"`
	DiscountRate             *decimal.Decimal `json:"discount_rate,omitempty"`
	ParValue                 decimal.Decimal  `json:"par_value"`
	ConversionShareClass     string           `json:"conversion_share_class" binding:"required"`
	BankAccountID            string           `json:"bank_account_id" binding:"required,uuid"`
	LoanLiabilityAccountID   string           `json:"loan_liability_account_id" binding:"required,uuid"`
	InterestExpenseAccountID string           `json:"interest_expense_account_id" binding:"required,uuid"`
	InterestPayableAccountID string           `json:"interest_payable_account_id,omitempty" binding:"omitempty,uuid"`
	ShareCapitalAccountID    string           `json:"share_capital_account_id" binding:"required,uuid"`
	SharePremiumAccountID    string           `json:"share_premium_account_id,omitempty" binding:"omitempty,uuid"`
}

// AccrueInterestRequest asks for interest up to an as-of date
type AccrueInterestRequest struct {
	AsOfDate     string           `json:"as_of_date" binding:"required,datetime=2006-01-02"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
}

// BatchAccrualRequest queues accruals for several loan notes at one date
type BatchAccrualRequest struct {
	LoanNoteIDs []string `json:"loan_note_ids" binding:"required,min=1,dive,uuid"`
	AsOfDate    string   `json:"as_of_date" binding:"required,datetime=2006-01-02"`
}

// ConvertLoanRequest carries the next round terms used to price a conversion
type ConvertLoanRequest struct {
	ConversionDate     string           `json:"conversion_date" binding:"required,datetime=2006-01-02"`
	NextRoundPrice     *decimal.Decimal `json:"next_round_price,omitempty"`
	FullyDilutedShares *decimal.Decimal `json:"fully_diluted_shares,omitempty"`
}

// HoldingsQuery filters the shareholder register
type HoldingsQuery struct {
	AsOf       string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
	ShareClass string `form:"share_class"`
}

// HoldingsResponse is the register of one company at a date
type HoldingsResponse struct {
	Company  string             `json:"company"`
	AsOf     string             `json:"as_of"`
	Holdings []register.Holding `json:"holdings"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Company:   acc.Company,
		RootType:  string(acc.RootType),
		Currency:  acc.Currency,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}

func (r CreateAgreementRequest) toAgreement() (*agreement.Agreement, error) {
	p := &fieldParser{}
	a := &agreement.Agreement{
		Company:               r.Company,
		ShareholderID:         p.id("shareholder_id", r.ShareholderID),
		ShareClass:            r.ShareClass,
		MovementKind:          shared.MovementKind(r.MovementKind),
		AgreementDate:         p.date("agreement_date", r.AgreementDate),
		PaymentDate:           p.optionalDate("payment_date", r.PaymentDate),
		NumberOfShares:        r.NumberOfShares,
		ParValue:              r.ParValue,
		RatePerShare:          r.RatePerShare,
		Currency:              r.Currency,
		ExchangeRate:          r.ExchangeRate,
		BankAccountID:         p.id("bank_account_id", r.BankAccountID),
		ShareCapitalAccountID: p.id("share_capital_account_id", r.ShareCapitalAccountID),
		SharePremiumAccountID: p.optionalID("share_premium_account_id", r.SharePremiumAccountID),
	}
	return a, p.err
}

func (r RecordMovementRequest) toMovement() (*movement.Movement, error) {
	p := &fieldParser{}
	m := &movement.Movement{
		Company:               r.Company,
		Kind:                  shared.MovementKind(r.Kind),
		TransactionDate:       p.date("transaction_date", r.TransactionDate),
		PaymentDate:           p.optionalDate("payment_date", r.PaymentDate),
		FromShareholderID:     p.optionalID("from_shareholder_id", r.FromShareholderID),
		ToShareholderID:       p.optionalID("to_shareholder_id", r.ToShareholderID),
		ShareClass:            r.ShareClass,
		NumberOfShares:        r.NumberOfShares,
		ParValue:              r.ParValue,
		PricePerShare:         r.PricePerShare,
		Currency:              r.Currency,
		ExchangeRate:          r.ExchangeRate,
		BankAccountID:         p.optionalID("bank_account_id", r.BankAccountID),
		ShareCapitalAccountID: p.optionalID("share_capital_account_id", r.ShareCapitalAccountID),
		SharePremiumAccountID: p.optionalID("share_premium_account_id", r.SharePremiumAccountID),
		Remarks:               r.Remarks,
	}
	return m, p.err
}

func (r CreateLoanNoteRequest) toLoanNote() (*loannote.LoanNote, error) {
	p := &fieldParser{}
	n := &loannote.LoanNote{
		Company:                  r.Company,
		LenderID:                 p.id("lender_id", r.LenderID),
		IssueDate:                p.date("issue_date", r.IssueDate),
		PrincipalAmount:          r.PrincipalAmount,
		InterestRate:             r.InterestRate,
		InterestMethod:           shared.InterestMethod(r.InterestMethod),
		Currency:                 r.Currency,
		ExchangeRate:             r.ExchangeRate,
		ValuationCap:             r.ValuationCap,
		DiscountRate:             r.DiscountRate,
		ParValue:                 r.ParValue,
		ConversionShareClass:     r.ConversionShareClass,
		BankAccountID:            p.id("bank_account_id", r.BankAccountID),
		LoanLiabilityAccountID:   p.id("loan_liability_account_id", r.LoanLiabilityAccountID),
		InterestExpenseAccountID: p.id("interest_expense_account_id", r.InterestExpenseAccountID),
		InterestPayableAccountID: p.optionalID("interest_payable_account_id", r.InterestPayableAccountID),
		ShareCapitalAccountID:    p.id("share_capital_account_id", r.ShareCapitalAccountID),
		SharePremiumAccountID:    p.optionalID("share_premium_account_id", r.SharePremiumAccountID),
	}
	return n, p.err
}

// fieldParser keeps the first parse failure so DTO mapping reads as a single literal
type fieldParser struct {
	err error
}

func (p *fieldParser) fail(field string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", field, err)
	}
}

func (p *fieldParser) id(field, raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		p.fail(field, err)
	}
	return id
}

func (p *fieldParser) optionalID(field, raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id := p.id(field, raw)
	return &id
}

func (p *fieldParser) date(field, raw string) time.Time {
	d, err := parseDate(raw)
	if err != nil {
		p.fail(field, err)
	}
	return d
}

func (p *fieldParser) optionalDate(field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	d := p.date(field, raw)
	return &d
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return shared.NormalizeDate(d), nil
}
