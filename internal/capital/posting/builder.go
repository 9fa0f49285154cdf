// Package posting turns capital events into balanced general ledger line sets.
package posting

import (
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account roles and the root types they accept
const (
	RoleBank            = "bank"
	RoleShareCapital    = "share capital"
	RoleSharePremium    = "share premium"
	RoleLoanLiability   = "loan liability"
	RoleInterestPayable = "interest payable"
	RoleInterestExpense = "interest expense"
)

var roleRoots = map[string][]shared.RootType{
	RoleBank:            {shared.RootTypeAsset},
	RoleShareCapital:    {shared.RootTypeEquity},
	RoleSharePremium:    {shared.RootTypeEquity},
	RoleLoanLiability:   {shared.RootTypeLiability},
	RoleInterestPayable: {shared.RootTypeLiability},
	RoleInterestExpense: {shared.RootTypeExpense},
}

// Event is a single-currency capital event. Amounts are in Currency; ExchangeRate converts Currency to BaseCurrency.
type Event struct {
	Kind         shared.EventKind
	Company      string
	Currency     string
	BaseCurrency string
	ExchangeRate decimal.Decimal
	PartyID      *uuid.UUID

	TotalAmount     decimal.Decimal
	ShareCapital    decimal.Decimal
	SharePremium    decimal.Decimal
	Principal       decimal.Decimal
	AccruedInterest decimal.Decimal

	Bank            *account.Account
	ShareCapitalAcc *account.Account
	SharePremiumAcc *account.Account
	LoanLiability   *account.Account
	InterestPayable *account.Account
}

// Build produces the ordered lines for an issuance, buyback, disbursement or conversion
// and checks that they balance in base currency.
//
//	issuance:     Dr bank total; Cr capital; Cr premium
//	buyback:      Dr capital; Dr premium; Cr bank total
//	disbursement: Dr bank principal; Cr loan liability principal
//	conversion:   Dr loan liability principal; Dr interest payable accrued; Cr capital; Cr premium
//
// Premium and accrued-interest lines are emitted only when positive.
func Build(ev Event) ([]ledger.Line, error) {
	if !ev.ExchangeRate.IsPositive() {
		return nil, shared.ErrPrecondition{Record: "posting", Reason: "exchange rate must be positive"}
	}

	b := &builder{ev: ev}
	switch ev.Kind {
	case shared.EventKindShareIssuance:
		b.add(ev.Bank, RoleBank, ledger.SideDebit, ev.TotalAmount)
		b.add(ev.ShareCapitalAcc, RoleShareCapital, ledger.SideCredit, ev.ShareCapital)
		if ev.SharePremium.IsPositive() {
			b.add(ev.SharePremiumAcc, RoleSharePremium, ledger.SideCredit, ev.SharePremium)
		}
	case shared.EventKindShareBuyback:
		b.add(ev.ShareCapitalAcc, RoleShareCapital, ledger.SideDebit, ev.ShareCapital)
		if ev.SharePremium.IsPositive() {
			b.add(ev.SharePremiumAcc, RoleSharePremium, ledger.SideDebit, ev.SharePremium)
		}
		b.add(ev.Bank, RoleBank, ledger.SideCredit, ev.TotalAmount)
	case shared.EventKindLoanDisbursement:
		b.add(ev.Bank, RoleBank, ledger.SideDebit, ev.Principal)
		b.add(ev.LoanLiability, RoleLoanLiability, ledger.SideCredit, ev.Principal)
	case shared.EventKindLoanConversion:
		b.add(ev.LoanLiability, RoleLoanLiability, ledger.SideDebit, ev.Principal)
		if ev.AccruedInterest.IsPositive() {
			b.add(ev.InterestPayable, RoleInterestPayable, ledger.SideDebit, ev.AccruedInterest)
		}
		b.add(ev.ShareCapitalAcc, RoleShareCapital, ledger.SideCredit, ev.ShareCapital)
		if ev.SharePremium.IsPositive() {
			b.add(ev.SharePremiumAcc, RoleSharePremium, ledger.SideCredit, ev.SharePremium)
		}
	default:
		return nil, shared.ErrPrecondition{Record: "posting", Reason: "no line template for " + string(ev.Kind)}
	}
	if b.err != nil {
		return nil, b.err
	}

	if err := ledger.CheckBalance(b.lines); err != nil {
		return nil, err
	}
	return b.lines, nil
}

type builder struct {
	ev    Event
	lines []ledger.Line
	err   error
}

// add appends a line in the transaction currency, or in base currency when the
// account is kept in base currency
func (b *builder) add(acc *account.Account, role string, side ledger.Side, amount decimal.Decimal) {
	if b.err != nil {
		return
	}
	if err := checkAccount(acc, b.ev.Company, role); err != nil {
		b.err = err
		return
	}

	l := ledger.Line{AccountID: acc.ID, Side: side, PartyID: b.ev.PartyID}
	switch acc.Currency {
	case "", b.ev.Currency:
		l.Amount = shared.RoundAmount(amount)
		l.Currency = b.ev.Currency
		l.ExchangeRate = b.ev.ExchangeRate
	case b.ev.BaseCurrency:
		l.Amount = shared.RoundAmount(amount.Mul(b.ev.ExchangeRate))
		l.Currency = b.ev.BaseCurrency
		l.ExchangeRate = decimal.NewFromInt(1)
	default:
		b.err = shared.ErrPrecondition{Record: "account", ID: acc.ID,
			Reason: role + " account currency " + acc.Currency + " matches neither " + b.ev.Currency + " nor " + b.ev.BaseCurrency}
		return
	}
	l.BaseAmount = shared.RoundAmount(l.Amount.Mul(l.ExchangeRate))
	b.lines = append(b.lines, l)
}

func checkAccount(acc *account.Account, company, role string) error {
	if acc == nil {
		return shared.ErrPrecondition{Record: "posting", Reason: role + " account is required"}
	}
	return acc.Postable(company, role, roleRoots[role]...)
}
