package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListByCompany(ctx context.Context, company string) ([]*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// ErrDuplicateName indicates account name uniqueness violation within a company
type ErrDuplicateName struct {
	Company string
	Name    string
}

func (e ErrDuplicateName) Error() string {
	return "account already exists in " + e.Company + ": " + e.Name
}
