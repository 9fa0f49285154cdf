package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/outbox"
	"github.com/equity-capital-ledger/internal/domain/shared"
)

// LedgerPublisher applies one outbox message to the general ledger projection
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

// LedgerPublisherImpl implements LedgerPublisher
type LedgerPublisherImpl struct {
	outboxRepo    outbox.Repository
	generalLedger ledger.GeneralLedger
	logger        *slog.Logger
}

func NewLedgerPublisher(
	outboxRepo outbox.Repository,
	generalLedger ledger.GeneralLedger,
	logger *slog.Logger,
) LedgerPublisher {
	return &LedgerPublisherImpl{
		outboxRepo:    outboxRepo,
		generalLedger: generalLedger,
		logger:        logger,
	}
}

// PublishToLedger projects the posting carried by message and marks the message PROCESSED.
// Every event is applied idempotently so a message can be replayed after a partial failure.
func (p *LedgerPublisherImpl) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	posting, err := message.GetPosting()
	if err != nil {
		p.logger.Error("Failed to unmarshal posting from outbox payload",
			"outbox_id", message.ID, "posting_id", message.PostingID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if posting.CorrelationID != "" {
		logger = p.logger.With("correlation_id", posting.CorrelationID)
	}

	switch message.Event {
	case shared.OutboxEventPostingCreated:
		err = p.generalLedger.Upsert(ctx, posting)
	case shared.OutboxEventPostingCancelled:
		err = p.generalLedger.MarkCancelled(ctx, posting.ID)
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			// created event never projected; the payload already carries the cancelled state
			err = p.generalLedger.Upsert(ctx, posting)
		}
	case shared.OutboxEventPostingDeleted:
		err = p.generalLedger.Delete(ctx, posting.ID)
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			err = nil
		}
	default:
		err = fmt.Errorf("unknown outbox event %q", message.Event)
	}
	if err != nil {
		logger.Error("Failed to apply outbox message to general ledger",
			"outbox_id", message.ID, "posting_id", posting.ID, "event", message.Event, "error", err,
		)
		return fmt.Errorf("failed to apply %s for posting %s: %w", message.Event, posting.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "posting_id", posting.ID, "error", err,
		)
		return fmt.Errorf("general ledger write for %s OK, but failed to mark outbox %d as PROCESSED: %w", posting.ID, message.ID, err)
	}

	logger.Info("Outbox message applied to general ledger", "outbox_id", message.ID, "posting_id", posting.ID, "event", message.Event)
	return nil
}
