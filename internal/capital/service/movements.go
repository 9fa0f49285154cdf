package service

import (
	"context"
	"fmt"
	"time"

	"github.com/equity-capital-ledger/internal/capital/posting"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// RecordMovement records a movement entered by hand. Conversion movements can only
// come from a loan note, so a manual movement never carries a source document.
func (s *CapitalServiceImpl) RecordMovement(ctx context.Context, m *movement.Movement) (*movement.Movement, error) {
	err := s.inTx(ctx, func(r Repositories) error {
		c, err := s.company(ctx, r, m.Company)
		if err != nil {
			return err
		}
		currency, err := shared.NormalizeCurrency(m.Currency)
		if err != nil {
			return err
		}

		now := time.Now()
		m.ID = uuid.New()
		m.Currency = currency
		m.BaseCurrency = c.BaseCurrency
		m.TransactionDate = shared.NormalizeDate(m.TransactionDate)
		m.Source = nil
		m.PostingID = nil
		m.DocStatus = shared.DocStatusSubmitted
		m.Status = movement.StatusSubmitted
		m.Version = 1
		m.CreatedAt, m.UpdatedAt = now, now

		rate, err := s.exchangeRate(ctx, m.ExchangeRate, m.Currency, c.BaseCurrency, m.TransactionDate)
		if err != nil {
			return err
		}
		m.ExchangeRate = rate
		m.ComputeAmounts()
		if err := m.Validate(); err != nil {
			return err
		}

		if m.Kind.IsIssuance() {
			last, err := r.Movements.LastCertificateNumbers(ctx, m.Company, m.ShareClass)
			if err != nil {
				return fmt.Errorf("failed to read certificate numbers: %w", err)
			}
			m.CertificateNumbers = movement.CertificateNumbers(m.ShareClass, last, m.NumberOfShares)
		}
		if err := r.Movements.Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create movement: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record movement", "company", m.Company, "kind", string(m.Kind), "error", err)
		return nil, err
	}
	return m, nil
}

func (s *CapitalServiceImpl) GetMovement(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	return s.repos.Movements.GetByID(ctx, id)
}

func (s *CapitalServiceImpl) PostPayment(ctx context.Context, movementID uuid.UUID) (*ledger.Posting, error) {
	var out *ledger.Posting
	err := s.inTx(ctx, func(r Repositories) error {
		m, err := r.Movements.GetByID(ctx, movementID)
		if err != nil {
			return err
		}
		if err := m.CanPostPayment(); err != nil {
			return err
		}

		bank, err := s.account(ctx, r, m.BankAccountID)
		if err != nil {
			return err
		}
		capital, err := s.account(ctx, r, m.ShareCapitalAccountID)
		if err != nil {
			return err
		}
		premium, err := s.account(ctx, r, m.SharePremiumAccountID)
		if err != nil {
			return err
		}

		ev := posting.Event{
			Kind:            shared.EventKindShareIssuance,
			Company:         m.Company,
			Currency:        m.Currency,
			BaseCurrency:    m.BaseCurrency,
			ExchangeRate:    m.ExchangeRate,
			PartyID:         m.ToShareholderID,
			TotalAmount:     m.TotalAmount,
			ShareCapital:    m.ShareCapitalAmount,
			SharePremium:    m.SharePremiumAmount,
			Bank:            bank,
			ShareCapitalAcc: capital,
			SharePremiumAcc: premium,
		}
		if m.Kind == shared.MovementKindShareBuyback {
			ev.Kind = shared.EventKindShareBuyback
			ev.PartyID = m.FromShareholderID
		}
		lines, err := posting.Build(ev)
		if err != nil {
			return err
		}

		date := m.TransactionDate
		if m.PaymentDate != nil {
			date = *m.PaymentDate
		}
		p, err := ledger.NewPosting(m.Company, ev.Kind, date, shared.DocumentKindMovement, m.ID, lines)
		if err != nil {
			return err
		}
		p.Remark = fmt.Sprintf("%s of %d %s shares at %s", m.Kind, m.NumberOfShares, m.ShareClass,
			shared.FormatAmount(m.PricePerShare, m.Currency))
		if err := s.writePosting(ctx, r, p); err != nil {
			return err
		}

		m.LinkPosting(p.ID)
		if err := r.Movements.Update(ctx, m); err != nil {
			return fmt.Errorf("failed to update movement: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to post payment", "movement_id", movementID.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Payment posted", "movement_id", movementID.String(), "posting_id", out.ID.String())
	return out, nil
}
