package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/equity-capital-ledger/internal/domain/outbox"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OutboxRepository implements the outbox.Repository interface for PostgreSQL
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOutboxRepository creates a new PostgreSQL outbox repository
func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
// This ensures message creation is atomic with the posting it describes.
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new outbox message in pending status.
// (posting_id, event) is unique, so each ledger change is queued once.
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	query := `
		INSERT INTO posting_outbox (posting_id, source_id, event, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.PostingID,
		message.SourceID,
		message.Event,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return outbox.ErrDuplicateMessage{PostingID: message.PostingID, Event: string(message.Event)}
		}
		r.logger.Error("Failed to create outbox message",
			"posting_id", message.PostingID.String(),
			"event", string(message.Event),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	return nil
}

// GetPending retrieves a batch of pending outbox messages ordered by creation time.
// This is used by the outbox poller to process messages in FIFO order.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := `
		SELECT id, posting_id, source_id, event, payload, status, attempts, created_at, last_attempt_at
		FROM posting_outbox
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`

	return r.list(ctx, "get pending outbox messages", query, shared.OutboxStatusPending, limit)
}

// ListByPostingID returns every message queued for a posting, oldest first
func (r *OutboxRepository) ListByPostingID(ctx context.Context, postingID uuid.UUID) ([]*outbox.Message, error) {
	query := `
		SELECT id, posting_id, source_id, event, payload, status, attempts, created_at, last_attempt_at
		FROM posting_outbox
		WHERE posting_id = $1
		ORDER BY id ASC
	`

	return r.list(ctx, "list outbox messages by posting", query, postingID)
}

func (r *OutboxRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		var message outbox.Message
		err := rows.Scan(
			&message.ID,
			&message.PostingID,
			&message.SourceID,
			&message.Event,
			&message.Payload,
			&message.Status,
			&message.Attempts,
			&message.CreatedAt,
			&message.LastAttemptAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan outbox message", "error", err)
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over outbox messages", "error", err)
		return nil, fmt.Errorf("error iterating over outbox messages: %w", err)
	}

	return messages, nil
}

// UpdateStatus records a delivery outcome; ErrMessageNotFound when the id is unknown
func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	query := `
		UPDATE posting_outbox
		SET status = $1, last_attempt_at = $2
		WHERE id = $3
	`
	return r.execOne(ctx, "update outbox message status", id, query, status, time.Now(), id)
}

// IncrementAttempts counts a failed delivery
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	query := `
		UPDATE posting_outbox
		SET attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2
	`
	return r.execOne(ctx, "increment outbox message attempts", id, query, time.Now(), id)
}

func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM posting_outbox
		WHERE id = $1
	`
	return r.execOne(ctx, "delete outbox message", id, query, id)
}

// execOne runs a statement that must touch exactly the message with the given id
func (r *OutboxRepository) execOne(ctx context.Context, op string, id int64, query string, args ...interface{}) error {
	result, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "id", id, "error", err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}
