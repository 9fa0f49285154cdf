package ledger

import (
	"context"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository stores postings in the relational store alongside the records that reference them
type Repository interface {
	Create(ctx context.Context, p *Posting) error
	GetByID(ctx context.Context, id uuid.UUID) (*Posting, error)
	Update(ctx context.Context, p *Posting) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySource(ctx context.Context, kind shared.DocumentKind, sourceID uuid.UUID) ([]*Posting, error)
	WithTx(tx pgx.Tx) Repository
}

// GeneralLedger is the read-optimized projection of postings, fed through the outbox
type GeneralLedger interface {
	Upsert(ctx context.Context, p *Posting) error
	GetByPostingID(ctx context.Context, postingID uuid.UUID) (*Posting, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Posting, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	MarkCancelled(ctx context.Context, postingID uuid.UUID) error
	Delete(ctx context.Context, postingID uuid.UUID) error
}

// ErrEntryNotFound indicates missing general ledger entry
type ErrEntryNotFound struct {
	PostingID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.PostingID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target PostingID is empty, consider it a match for any ErrEntryNotFound
	if t.PostingID == uuid.Nil {
		return true
	}
	return e.PostingID == t.PostingID
}
