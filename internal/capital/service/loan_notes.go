package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/equity-capital-ledger/internal/capital/interest"
	"github.com/equity-capital-ledger/internal/capital/posting"
	"github.com/equity-capital-ledger/internal/capital/pricing"
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *CapitalServiceImpl) CreateLoanNote(ctx context.Context, n *loannote.LoanNote) (*loannote.LoanNote, error) {
	currency, err := shared.NormalizeCurrency(n.Currency)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	n.ID = uuid.New()
	n.Currency = currency
	n.IssueDate = shared.NormalizeDate(n.IssueDate)
	n.DocStatus = shared.DocStatusDraft
	n.Status = loannote.StatusDraft
	n.AccruedInterest = decimal.Zero
	n.LastAccrualDate = nil
	n.Accruals = nil
	n.DisbursementPostingID, n.ConversionPostingID, n.MovementID = nil, nil, nil
	n.Version = 1
	n.CreatedAt, n.UpdatedAt = now, now

	if err := s.repos.LoanNotes.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create loan note", "company", n.Company, "error", err)
		return nil, fmt.Errorf("failed to create loan note: %w", err)
	}
	return n, nil
}

func (s *CapitalServiceImpl) SubmitLoanNote(ctx context.Context, id uuid.UUID) (*loannote.LoanNote, error) {
	var out *loannote.LoanNote
	err := s.inTx(ctx, func(r Repositories) error {
		n, err := r.LoanNotes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := n.Submit(); err != nil {
			return err
		}
		if err := r.LoanNotes.Update(ctx, n); err != nil {
			return fmt.Errorf("failed to update loan note: %w", err)
		}
		out = n
		return nil
	})
	return out, err
}

func (s *CapitalServiceImpl) GetLoanNote(ctx context.Context, id uuid.UUID) (*loannote.LoanNote, error) {
	return s.repos.LoanNotes.GetByID(ctx, id)
}

func (s *CapitalServiceImpl) DisburseLoan(ctx context.Context, loanNoteID uuid.UUID) (*ledger.Posting, error) {
	var out *ledger.Posting
	err := s.inTx(ctx, func(r Repositories) error {
		n, err := r.LoanNotes.GetByID(ctx, loanNoteID)
		if err != nil {
			return err
		}
		if err := n.CanDisburse(); err != nil {
			return err
		}
		c, err := s.company(ctx, r, n.Company)
		if err != nil {
			return err
		}
		rate, err := s.exchangeRate(ctx, n.ExchangeRate, n.Currency, c.BaseCurrency, n.IssueDate)
		if err != nil {
			return err
		}
		bank, err := s.account(ctx, r, &n.BankAccountID)
		if err != nil {
			return err
		}
		liability, err := s.account(ctx, r, &n.LoanLiabilityAccountID)
		if err != nil {
			return err
		}

		lender := n.LenderID
		lines, err := posting.Build(posting.Event{
			Kind:          shared.EventKindLoanDisbursement,
			Company:       n.Company,
			Currency:      n.Currency,
			BaseCurrency:  c.BaseCurrency,
			ExchangeRate:  rate,
			PartyID:       &lender,
			Principal:     n.PrincipalAmount,
			Bank:          bank,
			LoanLiability: liability,
		})
		if err != nil {
			return err
		}
		p, err := ledger.NewPosting(n.Company, shared.EventKindLoanDisbursement, n.IssueDate, shared.DocumentKindLoanNote, n.ID, lines)
		if err != nil {
			return err
		}
		p.Remark = "Disbursement of convertible loan note principal " + shared.FormatAmount(n.PrincipalAmount, n.Currency)
		if err := s.writePosting(ctx, r, p); err != nil {
			return err
		}

		n.Activate(p.ID)
		if err := r.LoanNotes.Update(ctx, n); err != nil {
			return fmt.Errorf("failed to update loan note: %w", err)
		}
		if err := s.refreshLender(ctx, r, n.LenderID); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to disburse loan note", "loan_note_id", loanNoteID.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Loan note disbursed", "loan_note_id", loanNoteID.String(), "posting_id", out.ID.String())
	return out, nil
}

func (s *CapitalServiceImpl) AccrueInterest(ctx context.Context, in AccrualInput) (*AccrualResult, error) {
	var out *AccrualResult
	err := s.inTx(ctx, func(r Repositories) error {
		n, err := r.LoanNotes.GetByID(ctx, in.LoanNoteID)
		if err != nil {
			return err
		}
		if err := n.CanAccrue(); err != nil {
			return err
		}

		period := interest.Input{
			Principal:  n.PrincipalAmount,
			AnnualRate: n.InterestRate,
			Method:     n.InterestMethod,
			Start:      n.AccrualStart(),
			End:        in.AsOfDate,
		}
		res, err := interest.Accrue(period)
		if err != nil {
			return err
		}

		c, err := s.company(ctx, r, n.Company)
		if err != nil {
			return err
		}
		explicit := n.ExchangeRate
		if in.ExchangeRate != nil {
			explicit = *in.ExchangeRate
		}
		baseRate, err := s.exchangeRate(ctx, explicit, n.Currency, c.BaseCurrency, res.End)
		if err != nil {
			return err
		}

		expenseAcc, err := s.account(ctx, r, &n.InterestExpenseAccountID)
		if err != nil {
			return err
		}
		payableID := n.InterestPayableAccount()
		payableAcc, err := s.account(ctx, r, &payableID)
		if err != nil {
			return err
		}
		expense, err := s.leg(ctx, expenseAcc, n.Currency, c.BaseCurrency, baseRate, res.End)
		if err != nil {
			return err
		}
		payable, err := s.leg(ctx, payableAcc, n.Currency, c.BaseCurrency, baseRate, res.End)
		if err != nil {
			return err
		}

		remarks := interest.Remarks(period, res, n.Currency)
		lender := n.LenderID
		lines, err := posting.BuildAccrual(posting.AccrualEvent{
			Company:  n.Company,
			Interest: res.Interest,
			PartyID:  &lender,
			Expense:  expense,
			Payable:  payable,
			Remark:   remarks,
		})
		if err != nil {
			return err
		}
		p, err := ledger.NewPosting(n.Company, shared.EventKindInterestAccrual, res.End, shared.DocumentKindLoanNote, n.ID, lines)
		if err != nil {
			return err
		}
		p.Remark = remarks
		if err := s.writePosting(ctx, r, p); err != nil {
			return err
		}

		postingID := p.ID
		a := &loannote.Accrual{
			ID:                 uuid.New(),
			AccrualDate:        res.End,
			FromDate:           res.Start,
			ToDate:             res.End,
			Days:               res.Days,
			InterestAmount:     res.Interest,
			Currency:           n.Currency,
			ExchangeRate:       baseRate,
			InterestAmountBase: shared.RoundAmount(res.Interest.Mul(baseRate)),
			PostingID:          &postingID,
			Remarks:            remarks,
			CreatedAt:          time.Now(),
		}
		n.ApplyAccrual(a)
		if err := r.LoanNotes.AddAccrual(ctx, a); err != nil {
			return fmt.Errorf("failed to add accrual record: %w", err)
		}
		if err := r.LoanNotes.Update(ctx, n); err != nil {
			return fmt.Errorf("failed to update loan note: %w", err)
		}

		out = &AccrualResult{
			Accrual:            a,
			PostingID:          p.ID,
			CumulativeInterest: n.AccruedInterest,
			RecordCount:        len(n.Accruals),
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to accrue interest",
			"loan_note_id", in.LoanNoteID.String(),
			"as_of_date", in.AsOfDate.Format(time.DateOnly),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Interest accrued",
		"loan_note_id", in.LoanNoteID.String(),
		"posting_id", out.PostingID.String(),
		"interest", out.Accrual.InterestAmount.String(),
		"cumulative_interest", out.CumulativeInterest.String(),
	)
	return out, nil
}

// leg resolves the rates that carry loan-currency interest into acc's currency and then into base
func (s *CapitalServiceImpl) leg(ctx context.Context, acc *account.Account, loanCurrency, baseCurrency string, baseRate decimal.Decimal, date time.Time) (posting.Leg, error) {
	one := decimal.NewFromInt(1)
	if acc == nil {
		return posting.Leg{}, nil
	}
	switch acc.Currency {
	case "", loanCurrency:
		kept := *acc
		kept.Currency = loanCurrency
		return posting.Leg{Account: &kept, Rate: one, BaseRate: baseRate}, nil
	case baseCurrency:
		return posting.Leg{Account: acc, Rate: baseRate, BaseRate: one}, nil
	}
	rate, err := s.rates.Rate(ctx, loanCurrency, acc.Currency, date)
	if err != nil {
		return posting.Leg{}, err
	}
	toBase, err := s.rates.Rate(ctx, acc.Currency, baseCurrency, date)
	if err != nil {
		return posting.Leg{}, err
	}
	return posting.Leg{Account: acc, Rate: rate, BaseRate: toBase}, nil
}

func (s *CapitalServiceImpl) ConvertLoan(ctx context.Context, in ConversionInput) (*ConversionResult, error) {
	var out *ConversionResult
	err := s.inTx(ctx, func(r Repositories) error {
		n, err := r.LoanNotes.GetByID(ctx, in.LoanNoteID)
		if err != nil {
			return err
		}
		if err := n.CanConvert(); err != nil {
			return err
		}
		if err := n.VerifyAccruedInterest(); err != nil {
			return shared.ErrPrecondition{Record: "loan note", ID: n.ID, Reason: err.Error()}
		}

		price, err := pricing.ConversionPrice(pricing.Terms{
			NextRoundPrice:     in.NextRoundPrice,
			DiscountRate:       n.DiscountRate,
			ValuationCap:       n.ValuationCap,
			FullyDilutedShares: in.FullyDilutedShares,
		})
		if err != nil {
			return err
		}
		if price.LessThan(n.ParValue) {
			return shared.ErrPrecondition{Record: "loan note", ID: n.ID,
				Reason: fmt.Sprintf("conversion price %s is below par value %s", price, n.ParValue)}
		}

		total := n.PrincipalAmount.Add(n.AccruedInterest)
		shares := total.Div(price).Floor().IntPart()
		if shares <= 0 {
			return shared.ErrZeroOrNegativeResult{Quantity: "shares", Value: decimal.NewFromInt(shares)}
		}
		capital := decimal.NewFromInt(shares).Mul(n.ParValue)

		date := shared.NormalizeDate(in.ConversionDate)
		c, err := s.company(ctx, r, n.Company)
		if err != nil {
			return err
		}
		rate, err := s.exchangeRate(ctx, n.ExchangeRate, n.Currency, c.BaseCurrency, date)
		if err != nil {
			return err
		}

		liability, err := s.account(ctx, r, &n.LoanLiabilityAccountID)
		if err != nil {
			return err
		}
		payableID := n.InterestPayableAccount()
		payable, err := s.account(ctx, r, &payableID)
		if err != nil {
			return err
		}
		capitalAcc, err := s.account(ctx, r, &n.ShareCapitalAccountID)
		if err != nil {
			return err
		}
		premiumAcc, err := s.account(ctx, r, n.SharePremiumAccountID)
		if err != nil {
			return err
		}

		lender := n.LenderID
		lines, err := posting.Build(posting.Event{
			Kind:            shared.EventKindLoanConversion,
			Company:         n.Company,
			Currency:        n.Currency,
			BaseCurrency:    c.BaseCurrency,
			ExchangeRate:    rate,
			PartyID:         &lender,
			Principal:       n.PrincipalAmount,
			AccruedInterest: n.AccruedInterest,
			ShareCapital:    capital,
			SharePremium:    total.Sub(capital),
			LoanLiability:   liability,
			InterestPayable: payable,
			ShareCapitalAcc: capitalAcc,
			SharePremiumAcc: premiumAcc,
		})
		if err != nil {
			return err
		}

		last, err := r.Movements.LastCertificateNumbers(ctx, n.Company, n.ConversionShareClass)
		if err != nil {
			return fmt.Errorf("failed to read certificate numbers: %w", err)
		}
		capitalID := n.ShareCapitalAccountID
		now := time.Now()
		m := &movement.Movement{
			ID:                    uuid.New(),
			Company:               n.Company,
			Kind:                  shared.MovementKindCLNConversion,
			TransactionDate:       date,
			ToShareholderID:       &lender,
			ShareClass:            n.ConversionShareClass,
			NumberOfShares:        shares,
			ParValue:              n.ParValue,
			PricePerShare:         price,
			Currency:              n.Currency,
			ExchangeRate:          rate,
			BaseCurrency:          c.BaseCurrency,
			ShareCapitalAccountID: &capitalID,
			SharePremiumAccountID: n.SharePremiumAccountID,
			ConversionDetails:     conversionDetails(n, in, price, total),
			Source:                &movement.Source{Kind: shared.DocumentKindLoanNote, ID: n.ID},
			DocStatus:             shared.DocStatusSubmitted,
			Status:                movement.StatusSubmitted,
			Version:               1,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		m.ComputeAmounts()
		m.CertificateNumbers = movement.CertificateNumbers(m.ShareClass, last, shares)
		if err := m.Validate(); err != nil {
			return err
		}

		p, err := ledger.NewPosting(n.Company, shared.EventKindLoanConversion, date, shared.DocumentKindLoanNote, n.ID, lines)
		if err != nil {
			return err
		}
		p.Remark = m.ConversionDetails
		if err := s.writePosting(ctx, r, p); err != nil {
			return err
		}
		m.LinkPosting(p.ID)
		if err := r.Movements.Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create conversion movement: %w", err)
		}

		n.MarkConverted(loannote.Conversion{
			Date:        date,
			Price:       price,
			Shares:      shares,
			TotalAmount: total,
			PostingID:   p.ID,
			MovementID:  m.ID,
		})
		if err := r.LoanNotes.Update(ctx, n); err != nil {
			return fmt.Errorf("failed to update loan note: %w", err)
		}
		if err := s.refreshLender(ctx, r, n.LenderID); err != nil {
			return err
		}

		out = &ConversionResult{
			PostingID:            p.ID,
			MovementID:           m.ID,
			ConversionPrice:      price,
			SharesIssued:         shares,
			TotalConvertedAmount: total,
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to convert loan note", "loan_note_id", in.LoanNoteID.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Loan note converted",
		"loan_note_id", in.LoanNoteID.String(),
		"movement_id", out.MovementID.String(),
		"shares_issued", out.SharesIssued,
		"conversion_price", out.ConversionPrice.String(),
	)
	return out, nil
}

func conversionDetails(n *loannote.LoanNote, in ConversionInput, price, total decimal.Decimal) string {
	parts := []string{
		fmt.Sprintf("Converted %s (principal %s, interest %s) at %s per share",
			shared.FormatAmount(total, n.Currency),
			shared.FormatAmount(n.PrincipalAmount, n.Currency),
			shared.FormatAmount(n.AccruedInterest, n.Currency),
			price.String()),
	}
	if n.DiscountRate != nil && in.NextRoundPrice != nil {
		parts = append(parts, fmt.Sprintf("discount %s%% on round price %s", n.DiscountRate.String(), in.NextRoundPrice.String()))
	}
	if n.ValuationCap != nil && in.FullyDilutedShares != nil {
		parts = append(parts, fmt.Sprintf("valuation cap %s over %s shares",
			shared.FormatAmount(*n.ValuationCap, n.Currency), in.FullyDilutedShares.String()))
	}
	return strings.Join(parts, "; ")
}
