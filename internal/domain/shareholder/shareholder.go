package shareholder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Shareholder is an equity holder or lender. Company is set only on a company's own issuer record.
type Shareholder struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Company             string          `json:"company,omitempty"`
	HasConvertibleLoans bool            `json:"has_convertible_loans"`
	TotalCLNPrincipal   decimal.Decimal `json:"total_cln_principal"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CLNAggregate is the denormalized summary of a lender's active loan notes
type CLNAggregate struct {
	HasConvertibleLoans bool
	TotalPrincipal      decimal.Decimal
}

// Repository defines shareholder persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Shareholder, error)
	UpdateCLNAggregate(ctx context.Context, id uuid.UUID, agg CLNAggregate) error
	WithTx(tx pgx.Tx) Repository
}
