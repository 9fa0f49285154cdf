package posting

import (
	"testing"

	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const company = "Acme Ltd"

func acct(root shared.RootType, currency string) *account.Account {
	return &account.Account{ID: uuid.New(), Name: string(root), Company: company, RootType: root, Currency: currency}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type chart struct {
	bank, capital, premium, liability, payable, expense *account.Account
}

func gbpChart() chart {
	return chart{
		bank:      acct(shared.RootTypeAsset, "GBP"),
		capital:   acct(shared.RootTypeEquity, "GBP"),
		premium:   acct(shared.RootTypeEquity, "GBP"),
		liability: acct(shared.RootTypeLiability, "GBP"),
		payable:   acct(shared.RootTypeLiability, "GBP"),
		expense:   acct(shared.RootTypeExpense, "GBP"),
	}
}

func issuanceEvent(c chart) Event {
	return Event{
		Kind:            shared.EventKindShareIssuance,
		Company:         company,
		Currency:        "GBP",
		BaseCurrency:    "GBP",
		ExchangeRate:    decimal.NewFromInt(1),
		TotalAmount:     dec("2500"),
		ShareCapital:    dec("10"),
		SharePremium:    dec("2490"),
		Bank:            c.bank,
		ShareCapitalAcc: c.capital,
		SharePremiumAcc: c.premium,
	}
}

func TestBuild_ShareIssuance(t *testing.T) {
	c := gbpChart()

	t.Run("WithPremium", func(t *testing.T) {
		lines, err := Build(issuanceEvent(c))
		require.NoError(t, err)
		require.Len(t, lines, 3)

		assert.Equal(t, c.bank.ID, lines[0].AccountID)
		assert.Equal(t, ledger.SideDebit, lines[0].Side)
		assert.Equal(t, "2500.00", lines[0].Amount.StringFixed(2))
		assert.Equal(t, c.capital.ID, lines[1].AccountID)
		assert.Equal(t, ledger.SideCredit, lines[1].Side)
		assert.Equal(t, c.premium.ID, lines[2].AccountID)
		assert.Equal(t, "2490.00", lines[2].BaseAmount.StringFixed(2))
	})

	t.Run("AtParHasNoPremiumLine", func(t *testing.T) {
		ev := issuanceEvent(c)
		ev.TotalAmount, ev.ShareCapital, ev.SharePremium = dec("10"), dec("10"), decimal.Zero
		ev.SharePremiumAcc = nil
		lines, err := Build(ev)
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("ForeignCurrencyWithBaseCurrencyBank", func(t *testing.T) {
		ev := issuanceEvent(c)
		ev.Bank = acct(shared.RootTypeAsset, "GBP")
		ev.ShareCapitalAcc = acct(shared.RootTypeEquity, "USD")
		ev.SharePremiumAcc = acct(shared.RootTypeEquity, "USD")
		ev.Currency = "USD"
		ev.ExchangeRate = dec("0.7913")
		ev.TotalAmount, ev.ShareCapital, ev.SharePremium = dec("375"), dec("25"), dec("350")

		lines, err := Build(ev)
		require.NoError(t, err)
		assert.Equal(t, "GBP", lines[0].Currency)
		assert.Equal(t, "296.74", lines[0].Amount.StringFixed(2))
		assert.Equal(t, "USD", lines[1].Currency)
		assert.Equal(t, "19.78", lines[1].BaseAmount.StringFixed(2))
		assert.Equal(t, "276.96", lines[2].BaseAmount.StringFixed(2))
	})

	t.Run("WrongRootType", func(t *testing.T) {
		ev := issuanceEvent(c)
		ev.ShareCapitalAcc = acct(shared.RootTypeLiability, "GBP")
		_, err := Build(ev)
		var classErr shared.ErrAccountClassification
		require.ErrorAs(t, err, &classErr)
		assert.Equal(t, RoleShareCapital, classErr.Role)
	})

	t.Run("MissingAccount", func(t *testing.T) {
		ev := issuanceEvent(c)
		ev.SharePremiumAcc = nil
		_, err := Build(ev)
		assert.ErrorIs(t, err, shared.ErrPrecondition{})
	})

	t.Run("ThirdCurrencyAccountRejected", func(t *testing.T) {
		ev := issuanceEvent(c)
		ev.Bank = acct(shared.RootTypeAsset, "EUR")
		_, err := Build(ev)
		assert.ErrorIs(t, err, shared.ErrPrecondition{})
	})

	t.Run("UnbalancedAmounts", func(t *testing.T) {
		ev := issuanceEvent(c)
		ev.SharePremium = dec("2000")
		_, err := Build(ev)
		assert.ErrorIs(t, err, shared.ErrPostingImbalance{})
	})
}

func TestBuild_ShareBuyback(t *testing.T) {
	c := gbpChart()
	ev := issuanceEvent(c)
	ev.Kind = shared.EventKindShareBuyback

	lines, err := Build(ev)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, c.capital.ID, lines[0].AccountID)
	assert.Equal(t, ledger.SideDebit, lines[0].Side)
	assert.Equal(t, ledger.SideDebit, lines[1].Side)
	assert.Equal(t, c.bank.ID, lines[2].AccountID)
	assert.Equal(t, ledger.SideCredit, lines[2].Side)
}

func TestBuild_LoanDisbursementAndConversion(t *testing.T) {
	c := gbpChart()
	lender := uuid.New()

	t.Run("Disbursement", func(t *testing.T) {
		lines, err := Build(Event{
			Kind: shared.EventKindLoanDisbursement, Company: company, Currency: "GBP", BaseCurrency: "GBP",
			ExchangeRate: decimal.NewFromInt(1), PartyID: &lender, Principal: dec("100000"),
			Bank: c.bank, LoanLiability: c.liability,
		})
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, c.bank.ID, lines[0].AccountID)
		assert.Equal(t, c.liability.ID, lines[1].AccountID)
		assert.Equal(t, lender, *lines[1].PartyID)
	})

	t.Run("Conversion", func(t *testing.T) {
		lines, err := Build(Event{
			Kind: shared.EventKindLoanConversion, Company: company, Currency: "GBP", BaseCurrency: "GBP",
			ExchangeRate: decimal.NewFromInt(1), Principal: dec("100000"), AccruedInterest: dec("10000"),
			ShareCapital: dec("687.50"), SharePremium: dec("109312.50"),
			LoanLiability: c.liability, InterestPayable: c.payable, ShareCapitalAcc: c.capital, SharePremiumAcc: c.premium,
		})
		require.NoError(t, err)
		require.Len(t, lines, 4)
		debit, credit := ledger.Totals(lines)
		assert.Equal(t, "110000.00", debit.StringFixed(2))
		assert.True(t, debit.Equal(credit))
	})

	t.Run("ConversionWithoutInterest", func(t *testing.T) {
		lines, err := Build(Event{
			Kind: shared.EventKindLoanConversion, Company: company, Currency: "GBP", BaseCurrency: "GBP",
			ExchangeRate: decimal.NewFromInt(1), Principal: dec("100"), ShareCapital: dec("100"),
			LoanLiability: c.liability, ShareCapitalAcc: c.capital,
		})
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})
}

func TestBuildAccrual(t *testing.T) {
	c := gbpChart()
	one := decimal.NewFromInt(1)

	t.Run("SingleCurrency", func(t *testing.T) {
		lines, err := BuildAccrual(AccrualEvent{
			Company: company, Interest: dec("10000"),
			Expense: Leg{Account: c.expense, Rate: one, BaseRate: one},
			Payable: Leg{Account: c.payable, Rate: one, BaseRate: one},
		})
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, ledger.SideDebit, lines[0].Side)
		assert.Equal(t, c.expense.ID, lines[0].AccountID)
		assert.Equal(t, ledger.SideCredit, lines[1].Side)
	})

	t.Run("LegsInDifferentCurrencies", func(t *testing.T) {
		usdPayable := acct(shared.RootTypeLiability, "USD")
		// loan in USD, base GBP; expense kept in GBP, payable in USD
		lines, err := BuildAccrual(AccrualEvent{
			Company: company, Interest: dec("1000"),
			Expense: Leg{Account: c.expense, Rate: dec("0.8"), BaseRate: one},
			Payable: Leg{Account: usdPayable, Rate: one, BaseRate: dec("0.8")},
		})
		require.NoError(t, err)
		assert.Equal(t, "GBP", lines[0].Currency)
		assert.Equal(t, "800.00", lines[0].Amount.StringFixed(2))
		assert.Equal(t, "USD", lines[1].Currency)
		assert.Equal(t, "1000.00", lines[1].Amount.StringFixed(2))
		assert.Equal(t, "800.00", lines[1].BaseAmount.StringFixed(2))
	})

	t.Run("IrreconcilableRatesAreFatal", func(t *testing.T) {
		eurPayable := acct(shared.RootTypeLiability, "EUR")
		_, err := BuildAccrual(AccrualEvent{
			Company: company, Interest: dec("1000"),
			Expense: Leg{Account: c.expense, Rate: dec("0.8"), BaseRate: one},
			Payable: Leg{Account: eurPayable, Rate: dec("0.92"), BaseRate: dec("0.85")},
		})
		assert.ErrorIs(t, err, shared.ErrPostingImbalance{})
	})

	t.Run("ExpenseAccountMustBeExpense", func(t *testing.T) {
		_, err := BuildAccrual(AccrualEvent{
			Company: company, Interest: dec("10"),
			Expense: Leg{Account: c.liability, Rate: one, BaseRate: one},
			Payable: Leg{Account: c.payable, Rate: one, BaseRate: one},
		})
		assert.ErrorIs(t, err, shared.ErrAccountClassification{})
	})
}
