package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const loanNoteColumns = `id, company, lender_id, issue_date, principal_amount, interest_rate, interest_method,
		currency, exchange_rate, valuation_cap, discount_rate, par_value, conversion_share_class,
		bank_account_id, loan_liability_account_id, interest_expense_account_id, interest_payable_account_id,
		share_capital_account_id, share_premium_account_id, docstatus, status, accrued_interest, last_accrual_date,
		disbursement_posting_id, conversion_posting_id, movement_id, conversion_date, conversion_price,
		shares_issued, total_converted_amount, version, created_at, updated_at`

const accrualColumns = `id, loan_note_id, sequence, accrual_date, from_date, to_date, days, interest_amount,
		currency, exchange_rate, interest_amount_base, posting_id, cumulative_interest, remarks, created_at`

// LoanNoteRepository implements the loannote.Repository interface for PostgreSQL.
// Accrual records live in loan_note_accruals and are removed with their note.
type LoanNoteRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLoanNoteRepository creates a new PostgreSQL loan note repository
func NewLoanNoteRepository(logger *slog.Logger, db *persistence.PostgresDB) loannote.Repository {
	return &LoanNoteRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *LoanNoteRepository) WithTx(tx pgx.Tx) loannote.Repository {
	return &LoanNoteRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new loan note. Accrual records are written separately through AddAccrual.
func (r *LoanNoteRepository) Create(ctx context.Context, n *loannote.LoanNote) error {
	query := `
		INSERT INTO loan_notes (` + loanNoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)
	`

	_, err := r.querier.Exec(ctx, query, loanNoteArgs(n)...)
	if err != nil {
		r.logger.Error("Failed to create loan note", "id", n.ID.String(), "error", err)
		return fmt.Errorf("failed to create loan note: %w", err)
	}

	return nil
}

// GetByID retrieves a loan note together with its accrual records in sequence order
func (r *LoanNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*loannote.LoanNote, error) {
	query := `
		SELECT ` + loanNoteColumns + `
		FROM loan_notes
		WHERE id = $1
	`

	n, err := scanLoanNote(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound{Record: "loan note", ID: id}
		}
		r.logger.Error("Failed to get loan note", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get loan note: %w", err)
	}

	accruals, err := r.listAccruals(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Accruals = accruals

	return n, nil
}

func (r *LoanNoteRepository) listAccruals(ctx context.Context, loanNoteID uuid.UUID) ([]*loannote.Accrual, error) {
	query := `
		SELECT ` + accrualColumns + `
		FROM loan_note_accruals
		WHERE loan_note_id = $1
		ORDER BY sequence ASC
	`

	rows, err := r.querier.Query(ctx, query, loanNoteID)
	if err != nil {
		r.logger.Error("Failed to list loan note accruals", "loan_note_id", loanNoteID.String(), "error", err)
		return nil, fmt.Errorf("failed to list loan note accruals: %w", err)
	}
	defer rows.Close()

	var accruals []*loannote.Accrual
	for rows.Next() {
		var a loannote.Accrual
		if err := rows.Scan(
			&a.ID,
			&a.LoanNoteID,
			&a.Sequence,
			&a.AccrualDate,
			&a.FromDate,
			&a.ToDate,
			&a.Days,
			&a.InterestAmount,
			&a.Currency,
			&a.ExchangeRate,
			&a.InterestAmountBase,
			&a.PostingID,
			&a.CumulativeInterest,
			&a.Remarks,
			&a.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan loan note accrual", "error", err)
			return nil, fmt.Errorf("failed to scan loan note accrual: %w", err)
		}
		accruals = append(accruals, &a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over loan note accruals", "error", err)
		return nil, fmt.Errorf("error iterating over loan note accruals: %w", err)
	}

	return accruals, nil
}

// Update writes the note's state columns with optimistic locking on Version
func (r *LoanNoteRepository) Update(ctx context.Context, n *loannote.LoanNote) error {
	query := `
		UPDATE loan_notes
		SET docstatus = $1, status = $2, accrued_interest = $3, last_accrual_date = $4,
			disbursement_posting_id = $5, conversion_posting_id = $6, movement_id = $7,
			conversion_date = $8, conversion_price = $9, shares_issued = $10, total_converted_amount = $11,
			version = version + 1, updated_at = $12
		WHERE id = $13 AND version = $14
	`

	result, err := r.querier.Exec(ctx, query,
		n.DocStatus,
		n.Status,
		n.AccruedInterest,
		n.LastAccrualDate,
		n.DisbursementPostingID,
		n.ConversionPostingID,
		n.MovementID,
		n.ConversionDate,
		n.ConversionPrice,
		n.SharesIssued,
		n.TotalConvertedAmount,
		n.UpdatedAt,
		n.ID,
		n.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update loan note", "id", n.ID.String(), "error", err)
		return fmt.Errorf("failed to update loan note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return loannote.ErrConcurrentModification{LoanNoteID: n.ID}
	}

	n.Version++
	return nil
}

// AddAccrual appends an accrual record. (loan_note_id, sequence) is unique.
func (r *LoanNoteRepository) AddAccrual(ctx context.Context, a *loannote.Accrual) error {
	query := `
		INSERT INTO loan_note_accruals (` + accrualColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		a.ID,
		a.LoanNoteID,
		a.Sequence,
		a.AccrualDate,
		a.FromDate,
		a.ToDate,
		a.Days,
		a.InterestAmount,
		a.Currency,
		a.ExchangeRate,
		a.InterestAmountBase,
		a.PostingID,
		a.CumulativeInterest,
		a.Remarks,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrPrecondition{Record: "loan note", ID: a.LoanNoteID, Reason: fmt.Sprintf("accrual %d already recorded", a.Sequence)}
		}
		r.logger.Error("Failed to add loan note accrual",
			"loan_note_id", a.LoanNoteID.String(),
			"sequence", a.Sequence,
			"error", err,
		)
		return fmt.Errorf("failed to add loan note accrual: %w", err)
	}

	return nil
}

// ClearAccrualPosting drops the posting reference of one accrual record
func (r *LoanNoteRepository) ClearAccrualPosting(ctx context.Context, accrualID uuid.UUID) error {
	query := `
		UPDATE loan_note_accruals
		SET posting_id = NULL
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, accrualID)
	if err != nil {
		r.logger.Error("Failed to clear accrual posting", "accrual_id", accrualID.String(), "error", err)
		return fmt.Errorf("failed to clear accrual posting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrNotFound{Record: "loan note accrual", ID: accrualID}
	}

	return nil
}

// ListByLender returns every loan note of a lender without accrual records
func (r *LoanNoteRepository) ListByLender(ctx context.Context, lenderID uuid.UUID) ([]*loannote.LoanNote, error) {
	query := `
		SELECT ` + loanNoteColumns + `
		FROM loan_notes
		WHERE lender_id = $1
		ORDER BY issue_date ASC, created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, lenderID)
	if err != nil {
		r.logger.Error("Failed to list loan notes by lender", "lender_id", lenderID.String(), "error", err)
		return nil, fmt.Errorf("failed to list loan notes by lender: %w", err)
	}
	defer rows.Close()

	var notes []*loannote.LoanNote
	for rows.Next() {
		n, err := scanLoanNote(rows)
		if err != nil {
			r.logger.Error("Failed to scan loan note", "error", err)
			return nil, fmt.Errorf("failed to scan loan note: %w", err)
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over loan notes", "error", err)
		return nil, fmt.Errorf("error iterating over loan notes: %w", err)
	}

	return notes, nil
}

// Delete permanently removes a loan note; its accrual records cascade
func (r *LoanNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM loan_notes WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete loan note", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete loan note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrNotFound{Record: "loan note", ID: id}
	}

	return nil
}

func loanNoteArgs(n *loannote.LoanNote) []interface{} {
	return []interface{}{
		n.ID,
		n.Company,
		n.LenderID,
		n.IssueDate,
		n.PrincipalAmount,
		n.InterestRate,
		n.InterestMethod,
		n.Currency,
		n.ExchangeRate,
		n.ValuationCap,
		n.DiscountRate,
		n.ParValue,
		n.ConversionShareClass,
		n.BankAccountID,
		n.LoanLiabilityAccountID,
		n.InterestExpenseAccountID,
		n.InterestPayableAccountID,
		n.ShareCapitalAccountID,
		n.SharePremiumAccountID,
		n.DocStatus,
		n.Status,
		n.AccruedInterest,
		n.LastAccrualDate,
		n.DisbursementPostingID,
		n.ConversionPostingID,
		n.MovementID,
		n.ConversionDate,
		n.ConversionPrice,
		n.SharesIssued,
		n.TotalConvertedAmount,
		n.Version,
		n.CreatedAt,
		n.UpdatedAt,
	}
}

func scanLoanNote(row rowScanner) (*loannote.LoanNote, error) {
	var n loannote.LoanNote
	err := row.Scan(
		&n.ID,
		&n.Company,
		&n.LenderID,
		&n.IssueDate,
		&n.PrincipalAmount,
		&n.InterestRate,
		&n.InterestMethod,
		&n.Currency,
		&n.ExchangeRate,
		&n.ValuationCap,
		&n.DiscountRate,
		&n.ParValue,
		&n.ConversionShareClass,
		&n.BankAccountID,
		&n.LoanLiabilityAccountID,
		&n.InterestExpenseAccountID,
		&n.InterestPayableAccountID,
		&n.ShareCapitalAccountID,
		&n.SharePremiumAccountID,
		&n.DocStatus,
		&n.Status,
		&n.AccruedInterest,
		&n.LastAccrualDate,
		&n.DisbursementPostingID,
		&n.ConversionPostingID,
		&n.MovementID,
		&n.ConversionDate,
		&n.ConversionPrice,
		&n.SharesIssued,
		&n.TotalConvertedAmount,
		&n.Version,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
