package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/company"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/domain/shareholder"
	"github.com/equity-capital-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CompanyRepository implements the company.Repository interface for PostgreSQL
type CompanyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCompanyRepository creates a new PostgreSQL company repository
func NewCompanyRepository(logger *slog.Logger, db *persistence.PostgresDB) company.Repository {
	return &CompanyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByName retrieves a company by its unique name
func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*company.Company, error) {
	query := `
		SELECT name, base_currency, issuer_shareholder_id, created_at
		FROM companies
		WHERE name = $1
	`

	var c company.Company
	err := r.querier.QueryRow(ctx, query, name).Scan(
		&c.Name,
		&c.BaseCurrency,
		&c.IssuerShareholderID,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound{Record: "company"}
		}
		r.logger.Error("Failed to get company", "name", name, "error", err)
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &c, nil
}

// ShareholderRepository implements the shareholder.Repository interface for PostgreSQL
type ShareholderRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewShareholderRepository creates a new PostgreSQL shareholder repository
func NewShareholderRepository(logger *slog.Logger, db *persistence.PostgresDB) shareholder.Repository {
	return &ShareholderRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *ShareholderRepository) WithTx(tx pgx.Tx) shareholder.Repository {
	return &ShareholderRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves a shareholder by its ID
func (r *ShareholderRepository) GetByID(ctx context.Context, id uuid.UUID) (*shareholder.Shareholder, error) {
	query := `
		SELECT id, name, COALESCE(company, ''), has_convertible_loans, total_cln_principal, created_at, updated_at
		FROM shareholders
		WHERE id = $1
	`

	var s shareholder.Shareholder
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Company,
		&s.HasConvertibleLoans,
		&s.TotalCLNPrincipal,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound{Record: "shareholder", ID: id}
		}
		r.logger.Error("Failed to get shareholder", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get shareholder: %w", err)
	}

	return &s, nil
}

// UpdateCLNAggregate overwrites the denormalized loan note summary of a lender
func (r *ShareholderRepository) UpdateCLNAggregate(ctx context.Context, id uuid.UUID, agg shareholder.CLNAggregate) error {
	query := `
		UPDATE shareholders
		SET has_convertible_loans = $1, total_cln_principal = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, agg.HasConvertibleLoans, agg.TotalPrincipal, id)
	if err != nil {
		r.logger.Error("Failed to update shareholder loan aggregate", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update shareholder loan aggregate: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrNotFound{Record: "shareholder", ID: id}
	}

	return nil
}
