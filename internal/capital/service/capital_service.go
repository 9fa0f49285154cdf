package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/equity-capital-ledger/internal/capital/cascade"
	"github.com/equity-capital-ledger/internal/capital/fx"
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/company"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/outbox"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CapitalServiceImpl struct {
	db     TxRunner
	repos  Repositories
	rates  fx.Resolver
	walker *cascade.Walker
	logger *slog.Logger
}

// NewCapitalService creates the capital service. The cascade walker runs over a
// graph store backed by the same repositories.
func NewCapitalService(logger *slog.Logger, db TxRunner, repos Repositories, rates fx.Resolver) CapitalService {
	s := &CapitalServiceImpl{
		db:     db,
		repos:  repos,
		rates:  rates,
		logger: logger.With("component", "capital_service"),
	}
	s.walker = cascade.NewWalker(logger, &graphStore{svc: s})
	return s
}

// inTx runs fn with repositories bound to a single transaction
func (s *CapitalServiceImpl) inTx(ctx context.Context, fn func(r Repositories) error) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return fn(s.repos.WithTx(tx))
	})
}

func (s *CapitalServiceImpl) company(ctx context.Context, r Repositories, name string) (*company.Company, error) {
	c, err := r.Companies.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load company %q: %w", name, err)
	}
	return c, nil
}

// exchangeRate returns 1 for same-currency events, the explicit rate when one was
// fixed on the document, and otherwise the stored rate effective at date
func (s *CapitalServiceImpl) exchangeRate(ctx context.Context, explicit decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if explicit.IsPositive() {
		return explicit, nil
	}
	rate, err := s.rates.Rate(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// account loads an optional account; a nil or zero id yields nil and leaves the
// posting builder to report the missing role
func (s *CapitalServiceImpl) account(ctx context.Context, r Repositories, id *uuid.UUID) (*account.Account, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	acc, err := r.Accounts.GetByID(ctx, *id)
	if err != nil {
		var notFound account.ErrAccountNotFound
		if errors.As(err, &notFound) {
			return nil, shared.ErrPrecondition{Record: "account", ID: *id, Reason: "account does not exist"}
		}
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}
	return acc, nil
}

// writePosting stores a posting and queues its general ledger projection in the same transaction
func (s *CapitalServiceImpl) writePosting(ctx context.Context, r Repositories, p *ledger.Posting) error {
	p.CorrelationID = shared.CorrelationID(ctx)
	if err := r.Postings.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create posting: %w", err)
	}
	return s.queue(ctx, r, shared.OutboxEventPostingCreated, p)
}

func (s *CapitalServiceImpl) queue(ctx context.Context, r Repositories, event shared.OutboxEvent, p *ledger.Posting) error {
	msg, err := outbox.NewMessage(event, p)
	if err != nil {
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	if err := r.Outbox.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to create outbox message",
			"posting_id", p.ID.String(),
			"event", string(event),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	return nil
}

// refreshLender recomputes the lender's convertible loan summary from its ACTIVE notes
func (s *CapitalServiceImpl) refreshLender(ctx context.Context, r Repositories, lenderID uuid.UUID) error {
	notes, err := r.LoanNotes.ListByLender(ctx, lenderID)
	if err != nil {
		return fmt.Errorf("failed to list loan notes of lender %s: %w", lenderID, err)
	}
	agg := loannote.LenderAggregate(notes)
	if err := r.Shareholders.UpdateCLNAggregate(ctx, lenderID, agg); err != nil {
		return fmt.Errorf("failed to update lender %s: %w", lenderID, err)
	}
	s.logger.Debug("Lender aggregate refreshed",
		"lender_id", lenderID.String(),
		"has_convertible_loans", agg.HasConvertibleLoans,
		"total_cln_principal", agg.TotalPrincipal.String(),
	)
	return nil
}

func (s *CapitalServiceImpl) GetPosting(ctx context.Context, id uuid.UUID) (*ledger.Posting, error) {
	return s.repos.Postings.GetByID(ctx, id)
}

func (s *CapitalServiceImpl) Cancel(ctx context.Context, ref cascade.Ref) (*cascade.Report, error) {
	s.logger.Info("Cancelling record", "ref", ref.String())
	if err := s.checkCancelRoot(ctx, ref); err != nil {
		return nil, err
	}
	return s.walker.Cancel(ctx, ref)
}

// checkCancelRoot rejects cancelling a record derived from a loan note on its own.
// Disbursement, accrual and conversion records carry loan note state and are
// only unwound by cancelling the loan note.
func (s *CapitalServiceImpl) checkCancelRoot(ctx context.Context, ref cascade.Ref) error {
	var source cascade.Ref
	switch ref.Kind {
	case shared.DocumentKindPosting:
		p, err := s.repos.Postings.GetByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		source = cascade.Ref{Kind: p.SourceKind, ID: p.SourceID}
	case shared.DocumentKindMovement:
		m, err := s.repos.Movements.GetByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		if m.Source == nil {
			return nil
		}
		source = cascade.Ref{Kind: m.Source.Kind, ID: m.Source.ID}
	default:
		return nil
	}
	if source.Kind != shared.DocumentKindLoanNote {
		return nil
	}
	return shared.ErrPrecondition{Record: string(ref.Kind), ID: ref.ID,
		Reason: "records of a loan note are cancelled with the loan note " + source.ID.String()}
}

func (s *CapitalServiceImpl) Delete(ctx context.Context, ref cascade.Ref) (*cascade.Report, error) {
	s.logger.Info("Deleting record", "ref", ref.String())
	return s.walker.Delete(ctx, ref)
}
