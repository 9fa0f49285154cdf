package agreement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines capital agreement persistence operations
type Repository interface {
	Create(ctx context.Context, a *Agreement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Agreement, error)

	// Update uses optimistic locking on Version and bumps it on success
	Update(ctx context.Context, a *Agreement) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AgreementID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for agreement: " + e.AgreementID.String()
}
