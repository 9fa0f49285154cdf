package posting

import (
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Leg converts the loan-currency interest into one account's currency and then into base currency.
// Both rates are resolved at the end of the accrual period.
type Leg struct {
	Account  *account.Account
	Rate     decimal.Decimal // loan currency -> account currency
	BaseRate decimal.Decimal // account currency -> base currency
}

// AccrualEvent is an interest accrual whose two legs may be kept in different currencies
type AccrualEvent struct {
	Company  string
	Interest decimal.Decimal
	PartyID  *uuid.UUID
	Expense  Leg
	Payable  Leg
	Remark   string
}

// BuildAccrual produces Dr interest expense / Cr interest payable. Each leg's base equivalent
// is computed independently and the two must reconcile within the balance tolerance.
func BuildAccrual(ev AccrualEvent) ([]ledger.Line, error) {
	if !ev.Interest.IsPositive() {
		return nil, shared.ErrZeroOrNegativeResult{Quantity: "interest", Value: ev.Interest}
	}

	debit, err := accrualLine(ev, ev.Expense, RoleInterestExpense, ledger.SideDebit)
	if err != nil {
		return nil, err
	}
	credit, err := accrualLine(ev, ev.Payable, RoleInterestPayable, ledger.SideCredit)
	if err != nil {
		return nil, err
	}

	lines := []ledger.Line{debit, credit}
	if err := ledger.CheckBalance(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func accrualLine(ev AccrualEvent, leg Leg, role string, side ledger.Side) (ledger.Line, error) {
	if err := checkAccount(leg.Account, ev.Company, role); err != nil {
		return ledger.Line{}, err
	}
	if !leg.Rate.IsPositive() || !leg.BaseRate.IsPositive() {
		return ledger.Line{}, shared.ErrPrecondition{Record: "posting", Reason: role + " exchange rate must be positive"}
	}
	amount := shared.RoundAmount(ev.Interest.Mul(leg.Rate))
	return ledger.Line{
		AccountID:    leg.Account.ID,
		Side:         side,
		Amount:       amount,
		Currency:     leg.Account.Currency,
		ExchangeRate: leg.BaseRate,
		BaseAmount:   shared.RoundAmount(amount.Mul(leg.BaseRate)),
		PartyID:      ev.PartyID,
		Remark:       ev.Remark,
	}, nil
}
