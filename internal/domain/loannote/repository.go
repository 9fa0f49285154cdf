package loannote

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines loan note persistence operations. GetByID loads accrual records too.
type Repository interface {
	Create(ctx context.Context, n *LoanNote) error
	GetByID(ctx context.Context, id uuid.UUID) (*LoanNote, error)

	// Update writes the note's own columns using optimistic locking on Version
	Update(ctx context.Context, n *LoanNote) error
	AddAccrual(ctx context.Context, a *Accrual) error
	ClearAccrualPosting(ctx context.Context, accrualID uuid.UUID) error
	ListByLender(ctx context.Context, lenderID uuid.UUID) ([]*LoanNote, error)
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	LoanNoteID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for loan note: " + e.LoanNoteID.String()
}
