package company

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Company is the issuer of shares and borrower of convertible loan notes
type Company struct {
	Name                string    `json:"name"`
	BaseCurrency        string    `json:"base_currency"`
	IssuerShareholderID uuid.UUID `json:"issuer_shareholder_id"`
	CreatedAt           time.Time `json:"created_at"`
}

// Repository defines company lookups
type Repository interface {
	GetByName(ctx context.Context, name string) (*Company, error)
}
