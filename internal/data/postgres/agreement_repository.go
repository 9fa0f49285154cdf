package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/agreement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const agreementColumns = `id, company, shareholder_id, share_class, movement_kind, agreement_date, payment_date,
		number_of_shares, par_value, rate_per_share, currency, exchange_rate,
		bank_account_id, share_capital_account_id, share_premium_account_id,
		docstatus, status, movement_id, version, created_at, updated_at`

// AgreementRepository implements the agreement.Repository interface for PostgreSQL
type AgreementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAgreementRepository creates a new PostgreSQL capital agreement repository
func NewAgreementRepository(logger *slog.Logger, db *persistence.PostgresDB) agreement.Repository {
	return &AgreementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *AgreementRepository) WithTx(tx pgx.Tx) agreement.Repository {
	return &AgreementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new capital agreement
func (r *AgreementRepository) Create(ctx context.Context, a *agreement.Agreement) error {
	query := `
		INSERT INTO capital_agreements (` + agreementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.querier.Exec(ctx, query,
		a.ID,
		a.Company,
		a.ShareholderID,
		a.ShareClass,
		a.MovementKind,
		a.AgreementDate,
		a.PaymentDate,
		a.NumberOfShares,
		a.ParValue,
		a.RatePerShare,
		a.Currency,
		a.ExchangeRate,
		a.BankAccountID,
		a.ShareCapitalAccountID,
		a.SharePremiumAccountID,
		a.DocStatus,
		a.Status,
		a.MovementID,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create agreement", "id", a.ID.String(), "error", err)
		return fmt.Errorf("failed to create agreement: %w", err)
	}

	return nil
}

// GetByID retrieves a capital agreement by its ID
func (r *AgreementRepository) GetByID(ctx context.Context, id uuid.UUID) (*agreement.Agreement, error) {
	query := `
		SELECT ` + agreementColumns + `
		FROM capital_agreements
		WHERE id = $1
	`

	a, err := scanAgreement(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound{Record: "agreement", ID: id}
		}
		r.logger.Error("Failed to get agreement", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get agreement: %w", err)
	}

	return a, nil
}

// Update writes the mutable columns. The row must still carry a.Version;
// on success the stored and in-memory versions are both incremented.
func (r *AgreementRepository) Update(ctx context.Context, a *agreement.Agreement) error {
	query := `
		UPDATE capital_agreements
		SET payment_date = $1, exchange_rate = $2, docstatus = $3, status = $4, movement_id = $5,
			version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8
	`

	result, err := r.querier.Exec(ctx, query,
		a.PaymentDate,
		a.ExchangeRate,
		a.DocStatus,
		a.Status,
		a.MovementID,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update agreement", "id", a.ID.String(), "error", err)
		return fmt.Errorf("failed to update agreement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return agreement.ErrConcurrentModification{AgreementID: a.ID}
	}

	a.Version++
	return nil
}

// Delete permanently removes a capital agreement
func (r *AgreementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM capital_agreements WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete agreement", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete agreement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrNotFound{Record: "agreement", ID: id}
	}

	return nil
}

func scanAgreement(row rowScanner) (*agreement.Agreement, error) {
	var a agreement.Agreement
	err := row.Scan(
		&a.ID,
		&a.Company,
		&a.ShareholderID,
		&a.ShareClass,
		&a.MovementKind,
		&a.AgreementDate,
		&a.PaymentDate,
		&a.NumberOfShares,
		&a.ParValue,
		&a.RatePerShare,
		&a.Currency,
		&a.ExchangeRate,
		&a.BankAccountID,
		&a.ShareCapitalAccountID,
		&a.SharePremiumAccountID,
		&a.DocStatus,
		&a.Status,
		&a.MovementID,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
