package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/shared"
)

const (
	// AccrualRunCollectionName is the name of the accrual run collection in MongoDB
	AccrualRunCollectionName = "accrual_runs"
)

type runDocument struct {
	RequestID      uuid.UUID               `bson:"_id"`
	LoanNoteID     uuid.UUID               `bson:"loan_note_id"`
	AsOfDate       time.Time               `bson:"as_of_date"`
	ExchangeRate   *primitive.Decimal128   `bson:"exchange_rate,omitempty"`
	CorrelationID  string                  `bson:"correlation_id,omitempty"`
	Status         shared.AccrualRunStatus `bson:"status"`
	FailureReason  string                  `bson:"failure_reason,omitempty"`
	PostingID      *uuid.UUID              `bson:"posting_id,omitempty"`
	InterestAmount primitive.Decimal128    `bson:"interest_amount"`
	CreatedAt      time.Time               `bson:"created_at"`
	ProcessedAt    *time.Time              `bson:"processed_at,omitempty"`
}

// AccrualRunRepository implements the accrualrun.Repository interface for MongoDB
type AccrualRunRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAccrualRunRepository creates a new MongoDB accrual run repository
func NewAccrualRunRepository(logger *slog.Logger, db *mongo.Database) accrualrun.Repository {
	return &AccrualRunRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert stores the run keyed by its request id
func (r *AccrualRunRepository) Upsert(ctx context.Context, run *accrualrun.Run) error {
	collection := r.db.Collection(AccrualRunCollectionName)

	doc, err := toRunDocument(run)
	if err != nil {
		return fmt.Errorf("failed to map accrual run %s: %w", run.RequestID, err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": run.RequestID}, doc, opts); err != nil {
		r.logger.Error("Failed to upsert accrual run",
			"request_id", run.RequestID.String(),
			"status", string(run.Status),
			"error", err)
		return fmt.Errorf("failed to upsert accrual run: %w", err)
	}

	return nil
}

// GetByRequestID retrieves a run by the id of the queued request.
// Returns ErrRunNotFound if the request was never seen.
func (r *AccrualRunRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*accrualrun.Run, error) {
	collection := r.db.Collection(AccrualRunCollectionName)

	var doc runDocument
	err := collection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accrualrun.ErrRunNotFound{RequestID: requestID}
		}
		r.logger.Error("Failed to get accrual run",
			"request_id", requestID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get accrual run: %w", err)
	}

	return fromRunDocument(&doc)
}

// ListByLoanNote retrieves paginated runs for a loan note, newest first
func (r *AccrualRunRepository) ListByLoanNote(ctx context.Context, loanNoteID uuid.UUID, limit, offset int) ([]*accrualrun.Run, error) {
	collection := r.db.Collection(AccrualRunCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"loan_note_id": loanNoteID}, opts)
	if err != nil {
		r.logger.Error("Failed to list accrual runs",
			"loan_note_id", loanNoteID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list accrual runs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []runDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode accrual runs",
			"loan_note_id", loanNoteID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode accrual runs: %w", err)
	}

	runs := make([]*accrualrun.Run, 0, len(docs))
	for i := range docs {
		run, err := fromRunDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, nil
}

func toRunDocument(run *accrualrun.Run) (*runDocument, error) {
	interest, err := toDecimal128(run.InterestAmount)
	if err != nil {
		return nil, err
	}

	doc := &runDocument{
		RequestID:      run.RequestID,
		LoanNoteID:     run.LoanNoteID,
		AsOfDate:       run.AsOfDate,
		CorrelationID:  run.CorrelationID,
		Status:         run.Status,
		FailureReason:  run.FailureReason,
		PostingID:      run.PostingID,
		InterestAmount: interest,
		CreatedAt:      run.CreatedAt,
		ProcessedAt:    run.ProcessedAt,
	}

	if run.ExchangeRate != nil {
		rate, err := toDecimal128(*run.ExchangeRate)
		if err != nil {
			return nil, err
		}
		doc.ExchangeRate = &rate
	}

	return doc, nil
}

func fromRunDocument(doc *runDocument) (*accrualrun.Run, error) {
	interest, err := fromDecimal128(doc.InterestAmount)
	if err != nil {
		return nil, err
	}

	run := &accrualrun.Run{
		RequestID:      doc.RequestID,
		LoanNoteID:     doc.LoanNoteID,
		AsOfDate:       doc.AsOfDate.UTC(),
		CorrelationID:  doc.CorrelationID,
		Status:         doc.Status,
		FailureReason:  doc.FailureReason,
		PostingID:      doc.PostingID,
		InterestAmount: interest,
		CreatedAt:      doc.CreatedAt,
		ProcessedAt:    doc.ProcessedAt,
	}

	if doc.ExchangeRate != nil {
		rate, err := fromDecimal128(*doc.ExchangeRate)
		if err != nil {
			return nil, err
		}
		run.ExchangeRate = &rate
	}

	return run, nil
}
