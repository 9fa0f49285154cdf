package service

import (
	"context"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/google/uuid"
)

// LedgerServiceImpl implements LedgerService
type LedgerServiceImpl struct {
	logger        *slog.Logger
	generalLedger ledger.GeneralLedger
}

func NewLedgerService(logger *slog.Logger, generalLedger ledger.GeneralLedger) LedgerService {
	return &LedgerServiceImpl{
		logger:        logger,
		generalLedger: generalLedger,
	}
}

// GetAccountPostings retrieves paginated postings for an account along with the total count
func (s *LedgerServiceImpl) GetAccountPostings(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Posting, int64, error) {
	offset := (page - 1) * perPage

	postings, err := s.generalLedger.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to get postings for account", "account_id", accountID.String(), "error", err)
		return nil, 0, err
	}

	total, err := s.generalLedger.CountByAccountID(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to count postings for account", "account_id", accountID.String(), "error", err)
		return nil, 0, err
	}

	return postings, total, nil
}
