package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const movementColumns = `id, company, kind, transaction_date, payment_date, from_shareholder_id, to_shareholder_id,
		share_class, number_of_shares, par_value, price_per_share, currency, exchange_rate, base_currency,
		total_amount, total_amount_base, share_capital_amount, share_premium_amount,
		bank_account_id, share_capital_account_id, share_premium_account_id,
		certificate_numbers, conversion_details, remarks, source_kind, source_id, posting_id,
		docstatus, status, version, created_at, updated_at`

// MovementRepository implements the movement.Repository interface for PostgreSQL
type MovementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMovementRepository creates a new PostgreSQL share movement repository
func NewMovementRepository(logger *slog.Logger, db *persistence.PostgresDB) movement.Repository {
	return &MovementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *MovementRepository) WithTx(tx pgx.Tx) movement.Repository {
	return &MovementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new movement. The partial unique index on (source_kind, source_id)
// over non-cancelled rows keeps one live movement per source document.
func (r *MovementRepository) Create(ctx context.Context, m *movement.Movement) error {
	query := `
		INSERT INTO share_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
	`

	_, err := r.querier.Exec(ctx, query, movementArgs(m)...)
	if err != nil {
		if isUniqueViolation(err) && m.Source != nil {
			return shared.ErrAlreadyExists{Record: string(m.Source.Kind), ID: m.Source.ID, Existing: shared.DocumentKindMovement}
		}
		r.logger.Error("Failed to create movement", "id", m.ID.String(), "kind", string(m.Kind), "error", err)
		return fmt.Errorf("failed to create movement: %w", err)
	}

	return nil
}

// GetByID retrieves a movement by its ID
func (r *MovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM share_movements
		WHERE id = $1
	`

	m, err := scanMovement(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound{Record: "movement", ID: id}
		}
		r.logger.Error("Failed to get movement", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}

	return m, nil
}

// Update writes the mutable columns with optimistic locking on Version
func (r *MovementRepository) Update(ctx context.Context, m *movement.Movement) error {
	query := `
		UPDATE share_movements
		SET payment_date = $1, certificate_numbers = $2, remarks = $3, posting_id = $4,
			docstatus = $5, status = $6, version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9
	`

	result, err := r.querier.Exec(ctx, query,
		m.PaymentDate,
		m.CertificateNumbers,
		m.Remarks,
		m.PostingID,
		m.DocStatus,
		m.Status,
		m.UpdatedAt,
		m.ID,
		m.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update movement", "id", m.ID.String(), "error", err)
		return fmt.Errorf("failed to update movement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return movement.ErrConcurrentModification{MovementID: m.ID}
	}

	m.Version++
	return nil
}

// Delete permanently removes a movement
func (r *MovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM share_movements WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete movement", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete movement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrNotFound{Record: "movement", ID: id}
	}

	return nil
}

// ListBySource returns every movement derived from a source document, cancelled ones included
func (r *MovementRepository) ListBySource(ctx context.Context, kind shared.DocumentKind, sourceID uuid.UUID) ([]*movement.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM share_movements
		WHERE source_kind = $1 AND source_id = $2
		ORDER BY created_at ASC
	`

	return r.list(ctx, "list movements by source", query, kind, sourceID)
}

// ListForRegister returns submitted movements dated on or before the filter date
func (r *MovementRepository) ListForRegister(ctx context.Context, filter movement.RegisterFilter) ([]*movement.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM share_movements
		WHERE company = $1 AND docstatus = $2 AND transaction_date <= $3
			AND ($4::text = '' OR share_class = $4)
		ORDER BY transaction_date ASC, created_at ASC
	`

	return r.list(ctx, "list movements for register", query,
		filter.Company, shared.DocStatusSubmitted, filter.AsOf, filter.ShareClass)
}

// LastCertificateNumbers returns the certificate list of the newest movement of a share class,
// cancelled ones included, so numbering never reuses a certificate.
func (r *MovementRepository) LastCertificateNumbers(ctx context.Context, company, shareClass string) (string, error) {
	query := `
		SELECT certificate_numbers
		FROM share_movements
		WHERE company = $1 AND share_class = $2 AND certificate_numbers <> ''
		ORDER BY created_at DESC
		LIMIT 1
	`

	var last string
	err := r.querier.QueryRow(ctx, query, company, shareClass).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		r.logger.Error("Failed to get last certificate numbers", "company", company, "share_class", shareClass, "error", err)
		return "", fmt.Errorf("failed to get last certificate numbers: %w", err)
	}

	return last, nil
}

func (r *MovementRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*movement.Movement, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var movements []*movement.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			r.logger.Error("Failed to scan movement", "error", err)
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over movements", "error", err)
		return nil, fmt.Errorf("error iterating over movements: %w", err)
	}

	return movements, nil
}

func movementArgs(m *movement.Movement) []interface{} {
	var sourceKind *shared.DocumentKind
	var sourceID *uuid.UUID
	if m.Source != nil {
		kind, id := m.Source.Kind, m.Source.ID
		sourceKind, sourceID = &kind, &id
	}
	return []interface{}{
		m.ID,
		m.Company,
		m.Kind,
		m.TransactionDate,
		m.PaymentDate,
		m.FromShareholderID,
		m.ToShareholderID,
		m.ShareClass,
		m.NumberOfShares,
		m.ParValue,
		m.PricePerShare,
		m.Currency,
		m.ExchangeRate,
		m.BaseCurrency,
		m.TotalAmount,
		m.TotalAmountBase,
		m.ShareCapitalAmount,
		m.SharePremiumAmount,
		m.BankAccountID,
		m.ShareCapitalAccountID,
		m.SharePremiumAccountID,
		m.CertificateNumbers,
		m.ConversionDetails,
		m.Remarks,
		sourceKind,
		sourceID,
		m.PostingID,
		m.DocStatus,
		m.Status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	}
}

func scanMovement(row rowScanner) (*movement.Movement, error) {
	var m movement.Movement
	var sourceKind *shared.DocumentKind
	var sourceID *uuid.UUID
	err := row.Scan(
		&m.ID,
		&m.Company,
		&m.Kind,
		&m.TransactionDate,
		&m.PaymentDate,
		&m.FromShareholderID,
		&m.ToShareholderID,
		&m.ShareClass,
		&m.NumberOfShares,
		&m.ParValue,
		&m.PricePerShare,
		&m.Currency,
		&m.ExchangeRate,
		&m.BaseCurrency,
		&m.TotalAmount,
		&m.TotalAmountBase,
		&m.ShareCapitalAmount,
		&m.SharePremiumAmount,
		&m.BankAccountID,
		&m.ShareCapitalAccountID,
		&m.SharePremiumAccountID,
		&m.CertificateNumbers,
		&m.ConversionDetails,
		&m.Remarks,
		&sourceKind,
		&sourceID,
		&m.PostingID,
		&m.DocStatus,
		&m.Status,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sourceKind != nil && sourceID != nil {
		m.Source = &movement.Source{Kind: *sourceKind, ID: *sourceID}
	}
	return &m, nil
}
