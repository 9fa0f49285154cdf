package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const postingColumns = `id, company, event_kind, posting_date, source_kind, source_id, remark,
		multi_currency, docstatus, correlation_id, created_at, cancelled_at`

// PostingRepository implements the ledger.Repository interface for PostgreSQL.
// Lines are stored in posting_lines keyed by (posting_id, line_no).
type PostingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPostingRepository creates a new PostgreSQL posting repository
func NewPostingRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &PostingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction. Create should always run in one
// so the header and its lines are written atomically.
func (r *PostingRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &PostingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a posting header followed by its lines
func (r *PostingRepository) Create(ctx context.Context, p *ledger.Posting) error {
	query := `
		INSERT INTO postings (` + postingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.Company,
		p.EventKind,
		p.PostingDate,
		p.SourceKind,
		p.SourceID,
		p.Remark,
		p.MultiCurrency,
		p.DocStatus,
		p.CorrelationID,
		p.CreatedAt,
		p.CancelledAt,
	)
	if err != nil {
		r.logger.Error("Failed to create posting", "id", p.ID.String(), "event_kind", string(p.EventKind), "error", err)
		return fmt.Errorf("failed to create posting: %w", err)
	}

	lineQuery := `
		INSERT INTO posting_lines (posting_id, line_no, account_id, side, amount, currency, exchange_rate, base_amount, party_id, remark)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for i, l := range p.Lines {
		_, err := r.querier.Exec(ctx, lineQuery,
			p.ID,
			i+1,
			l.AccountID,
			l.Side,
			l.Amount,
			l.Currency,
			l.ExchangeRate,
			l.BaseAmount,
			l.PartyID,
			l.Remark,
		)
		if err != nil {
			r.logger.Error("Failed to create posting line", "posting_id", p.ID.String(), "line_no", i+1, "error", err)
			return fmt.Errorf("failed to create posting line: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a posting with its lines
func (r *PostingRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE id = $1
	`

	p, err := scanPosting(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound{Record: "posting", ID: id}
		}
		r.logger.Error("Failed to get posting", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}

	if p.Lines, err = r.lines(ctx, id); err != nil {
		return nil, err
	}

	return p, nil
}

// Update writes the lifecycle columns; lines are immutable once posted
func (r *PostingRepository) Update(ctx context.Context, p *ledger.Posting) error {
	query := `
		UPDATE postings
		SET docstatus = $1, cancelled_at = $2, remark = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query, p.DocStatus, p.CancelledAt, p.Remark, p.ID)
	if err != nil {
		r.logger.Error("Failed to update posting", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to update posting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrNotFound{Record: "posting", ID: p.ID}
	}

	return nil
}

// Delete permanently removes a posting; its lines cascade
func (r *PostingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM postings WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete posting", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete posting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrNotFound{Record: "posting", ID: id}
	}

	return nil
}

// ListBySource returns every posting produced for a source document, with lines
func (r *PostingRepository) ListBySource(ctx context.Context, kind shared.DocumentKind, sourceID uuid.UUID) ([]*ledger.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE source_kind = $1 AND source_id = $2
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, kind, sourceID)
	if err != nil {
		r.logger.Error("Failed to list postings by source", "source_id", sourceID.String(), "error", err)
		return nil, fmt.Errorf("failed to list postings by source: %w", err)
	}

	var postings []*ledger.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			rows.Close()
			r.logger.Error("Failed to scan posting", "error", err)
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over postings", "error", err)
		return nil, fmt.Errorf("error iterating over postings: %w", err)
	}

	// lines are read after the header cursor is closed; a pgx.Tx runs one query at a time
	for _, p := range postings {
		if p.Lines, err = r.lines(ctx, p.ID); err != nil {
			return nil, err
		}
	}

	return postings, nil
}

func (r *PostingRepository) lines(ctx context.Context, postingID uuid.UUID) ([]ledger.Line, error) {
	query := `
		SELECT account_id, side, amount, currency, exchange_rate, base_amount, party_id, remark
		FROM posting_lines
		WHERE posting_id = $1
		ORDER BY line_no ASC
	`

	rows, err := r.querier.Query(ctx, query, postingID)
	if err != nil {
		r.logger.Error("Failed to get posting lines", "posting_id", postingID.String(), "error", err)
		return nil, fmt.Errorf("failed to get posting lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.Line
	for rows.Next() {
		var l ledger.Line
		if err := rows.Scan(
			&l.AccountID,
			&l.Side,
			&l.Amount,
			&l.Currency,
			&l.ExchangeRate,
			&l.BaseAmount,
			&l.PartyID,
			&l.Remark,
		); err != nil {
			r.logger.Error("Failed to scan posting line", "error", err)
			return nil, fmt.Errorf("failed to scan posting line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over posting lines", "error", err)
		return nil, fmt.Errorf("error iterating over posting lines: %w", err)
	}

	return lines, nil
}

func scanPosting(row rowScanner) (*ledger.Posting, error) {
	var p ledger.Posting
	err := row.Scan(
		&p.ID,
		&p.Company,
		&p.EventKind,
		&p.PostingDate,
		&p.SourceKind,
		&p.SourceID,
		&p.Remark,
		&p.MultiCurrency,
		&p.DocStatus,
		&p.CorrelationID,
		&p.CreatedAt,
		&p.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
