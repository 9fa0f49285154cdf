package service

import (
	"context"
	"fmt"
	"time"

	"github.com/equity-capital-ledger/internal/domain/agreement"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

func (s *CapitalServiceImpl) CreateAgreement(ctx context.Context, a *agreement.Agreement) (*agreement.Agreement, error) {
	currency, err := shared.NormalizeCurrency(a.Currency)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	a.ID = uuid.New()
	a.Currency = currency
	a.AgreementDate = shared.NormalizeDate(a.AgreementDate)
	a.DocStatus = shared.DocStatusDraft
	a.Status = agreement.StatusDraft
	a.MovementID = nil
	a.Version = 1
	a.CreatedAt, a.UpdatedAt = now, now

	if err := s.repos.Agreements.Create(ctx, a); err != nil {
		s.logger.Error("Failed to create agreement", "company", a.Company, "error", err)
		return nil, fmt.Errorf("failed to create agreement: %w", err)
	}
	return a, nil
}

func (s *CapitalServiceImpl) SubmitAgreement(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error) {
	var out *agreement.Agreement
	err := s.inTx(ctx, func(r Repositories) error {
		a, err := r.Agreements.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Submit(); err != nil {
			return err
		}
		if err := r.Agreements.Update(ctx, a); err != nil {
			return fmt.Errorf("failed to update agreement: %w", err)
		}
		out = a
		return nil
	})
	return out, err
}

func (s *CapitalServiceImpl) GetAgreement(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error) {
	return s.repos.Agreements.GetByID(ctx, id)
}

func (s *CapitalServiceImpl) IssueShares(ctx context.Context, agreementID uuid.UUID) (*movement.Movement, error) {
	var out *movement.Movement
	err := s.inTx(ctx, func(r Repositories) error {
		a, err := r.Agreements.GetByID(ctx, agreementID)
		if err != nil {
			return err
		}
		if err := a.CanIssueShares(); err != nil {
			return err
		}
		c, err := s.company(ctx, r, a.Company)
		if err != nil {
			return err
		}
		rate, err := s.exchangeRate(ctx, a.ExchangeRate, a.Currency, c.BaseCurrency, a.AgreementDate)
		if err != nil {
			return err
		}
		last, err := r.Movements.LastCertificateNumbers(ctx, a.Company, a.ShareClass)
		if err != nil {
			return fmt.Errorf("failed to read certificate numbers: %w", err)
		}

		holder := a.ShareholderID
		bank, capital := a.BankAccountID, a.ShareCapitalAccountID
		now := time.Now()
		m := &movement.Movement{
			ID:                    uuid.New(),
			Company:               a.Company,
			Kind:                  a.MovementKind,
			TransactionDate:       a.AgreementDate,
			PaymentDate:           a.PaymentDate,
			ToShareholderID:       &holder,
			ShareClass:            a.ShareClass,
			NumberOfShares:        a.NumberOfShares,
			ParValue:              a.ParValue,
			PricePerShare:         a.RatePerShare,
			Currency:              a.Currency,
			ExchangeRate:          rate,
			BaseCurrency:          c.BaseCurrency,
			BankAccountID:         &bank,
			ShareCapitalAccountID: &capital,
			SharePremiumAccountID: a.SharePremiumAccountID,
			Source:                &movement.Source{Kind: shared.DocumentKindAgreement, ID: a.ID},
			DocStatus:             shared.DocStatusSubmitted,
			Status:                movement.StatusSubmitted,
			Version:               1,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		m.ComputeAmounts()
		m.CertificateNumbers = movement.CertificateNumbers(a.ShareClass, last, a.NumberOfShares)
		if err := m.Validate(); err != nil {
			return err
		}
		if err := r.Movements.Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create movement: %w", err)
		}

		a.MarkSharesIssued(m.ID)
		if err := r.Agreements.Update(ctx, a); err != nil {
			return fmt.Errorf("failed to update agreement: %w", err)
		}
		out = m
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to issue shares", "agreement_id", agreementID.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Shares issued",
		"agreement_id", agreementID.String(),
		"movement_id", out.ID.String(),
		"shares", out.NumberOfShares,
		"total_amount_base", out.TotalAmountBase.String(),
	)
	return out, nil
}
