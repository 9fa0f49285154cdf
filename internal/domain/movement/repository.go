package movement

import (
	"context"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RegisterFilter selects the movements that feed the holdings register
type RegisterFilter struct {
	Company    string
	AsOf       time.Time
	ShareClass string // empty means all classes
}

// Repository defines share movement persistence operations
type Repository interface {
	// Create returns shared.ErrAlreadyExists when the source already has a live movement
	Create(ctx context.Context, m *Movement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Movement, error)

	// Update uses optimistic locking on Version
	Update(ctx context.Context, m *Movement) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySource(ctx context.Context, kind shared.DocumentKind, sourceID uuid.UUID) ([]*Movement, error)

	// ListForRegister returns submitted movements ordered by transaction date then creation time
	ListForRegister(ctx context.Context, filter RegisterFilter) ([]*Movement, error)
	LastCertificateNumbers(ctx context.Context, company, shareClass string) (string, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	MovementID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for movement: " + e.MovementID.String()
}
