package loannote

import (
	"testing"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmitted(t *testing.T) *LoanNote {
	t.Helper()
	discount := decimal.NewFromInt(20)
	n := &LoanNote{
		ID:                       uuid.New(),
		Company:                  "Acme Ltd",
		LenderID:                 uuid.New(),
		IssueDate:                time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PrincipalAmount:          decimal.NewFromInt(100000),
		InterestRate:             decimal.NewFromInt(10),
		InterestMethod:           shared.InterestMethodSimple,
		Currency:                 "GBP",
		DiscountRate:             &discount,
		ParValue:                 decimal.RequireFromString("0.01"),
		ConversionShareClass:     "ORD",
		BankAccountID:            uuid.New(),
		LoanLiabilityAccountID:   uuid.New(),
		InterestExpenseAccountID: uuid.New(),
		ShareCapitalAccountID:    uuid.New(),
		DocStatus:                shared.DocStatusDraft,
		Status:                   StatusDraft,
		Version:                  1,
	}
	require.NoError(t, n.Submit())
	return n
}

func TestLoanNote_Submit(t *testing.T) {
	t.Run("StaysDraftUntilDisbursed", func(t *testing.T) {
		n := newSubmitted(t)
		assert.Equal(t, shared.DocStatusSubmitted, n.DocStatus)
		assert.Equal(t, StatusDraft, n.Status)
	})

	t.Run("DiscountOutOfRange", func(t *testing.T) {
		n := &LoanNote{PrincipalAmount: decimal.NewFromInt(1), InterestMethod: shared.InterestMethodSimple, Currency: "GBP"}
		d := decimal.NewFromInt(100)
		n.DiscountRate = &d
		assert.ErrorIs(t, n.Submit(), ErrInvalidDiscount)
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		n := &LoanNote{PrincipalAmount: decimal.NewFromInt(1), InterestMethod: "DAILY"}
		assert.ErrorIs(t, n.Submit(), ErrInvalidMethod)
	})
}

func TestLoanNote_Lifecycle(t *testing.T) {
	n := newSubmitted(t)

	assert.ErrorIs(t, n.CanAccrue(), shared.ErrPrecondition{})
	require.NoError(t, n.CanDisburse())

	disbursement := uuid.New()
	n.Activate(disbursement)
	assert.Equal(t, StatusActive, n.Status)
	assert.ErrorIs(t, n.CanDisburse(), shared.ErrAlreadyExists{})
	require.NoError(t, n.CanAccrue())
	assert.Equal(t, n.IssueDate, n.AccrualStart())

	first := uuid.New()
	n.ApplyAccrual(&Accrual{ID: uuid.New(), ToDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), InterestAmount: decimal.RequireFromString("4986.30"), PostingID: &first})
	second := uuid.New()
	n.ApplyAccrual(&Accrual{ID: uuid.New(), ToDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), InterestAmount: decimal.RequireFromString("5041.10"), PostingID: &second})

	assert.Equal(t, "10027.4", n.AccruedInterest.String())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), n.AccrualStart())
	assert.Equal(t, 2, n.Accruals[1].Sequence)
	assert.True(t, n.Accruals[1].CumulativeInterest.Equal(n.AccruedInterest))
	require.NoError(t, n.VerifyAccruedInterest())

	require.NoError(t, n.CanConvert())
	conversionPosting, movement := uuid.New(), uuid.New()
	n.MarkConverted(Conversion{Date: time.Now(), Price: decimal.NewFromInt(1), Shares: 110027, TotalAmount: decimal.RequireFromString("110027.40"), PostingID: conversionPosting, MovementID: movement})
	assert.Equal(t, StatusConverted, n.Status)

	var exists shared.ErrAlreadyExists
	require.ErrorAs(t, n.CanConvert(), &exists)
	assert.Equal(t, conversionPosting, exists.ExistingID)

	assert.Equal(t, []uuid.UUID{conversionPosting, first, second, disbursement}, n.PostingLinks())

	cleared := n.ClearPosting(second)
	require.NotNil(t, cleared)
	assert.Nil(t, cleared.PostingID)
	assert.Nil(t, n.ClearPosting(disbursement))
	assert.Nil(t, n.DisbursementPostingID)
	assert.Equal(t, []uuid.UUID{conversionPosting, first}, n.PostingLinks())

	require.NoError(t, n.Cancel())
	assert.Equal(t, StatusCancelled, n.Status)
	assert.ErrorIs(t, n.Cancel(), shared.ErrPrecondition{})
}

func TestLoanNote_InterestPayableAccountDefaultsToLiability(t *testing.T) {
	n := newSubmitted(t)
	assert.Equal(t, n.LoanLiabilityAccountID, n.InterestPayableAccount())

	payable := uuid.New()
	n.InterestPayableAccountID = &payable
	assert.Equal(t, payable, n.InterestPayableAccount())
}

func TestLenderAggregate(t *testing.T) {
	active := func(p int64) *LoanNote {
		return &LoanNote{Status: StatusActive, PrincipalAmount: decimal.NewFromInt(p)}
	}
	converted := &LoanNote{Status: StatusConverted, PrincipalAmount: decimal.NewFromInt(500)}

	agg := LenderAggregate([]*LoanNote{active(1000), converted, active(250)})
	assert.True(t, agg.HasConvertibleLoans)
	assert.Equal(t, "1250", agg.TotalPrincipal.String())

	none := LenderAggregate([]*LoanNote{converted})
	assert.False(t, none.HasConvertibleLoans)
	assert.True(t, none.TotalPrincipal.IsZero())
}
