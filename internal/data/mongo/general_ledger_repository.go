package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
)

const (
	// GeneralLedgerCollectionName is the name of the general ledger collection in MongoDB
	GeneralLedgerCollectionName = "general_ledger"
)

type lineDocument struct {
	AccountID    uuid.UUID            `bson:"account_id"`
	Side         ledger.Side          `bson:"side"`
	Amount       primitive.Decimal128 `bson:"amount"`
	Currency     string               `bson:"currency"`
	ExchangeRate primitive.Decimal128 `bson:"exchange_rate"`
	BaseAmount   primitive.Decimal128 `bson:"base_amount"`
	PartyID      *uuid.UUID           `bson:"party_id,omitempty"`
	Remark       string               `bson:"remark,omitempty"`
}

// postingDocument is the projected shape of a posting. AccountIDs indexes every
// account touched so a single multikey index serves per-account lookups.
type postingDocument struct {
	PostingID     uuid.UUID           `bson:"_id"`
	Company       string              `bson:"company"`
	EventKind     shared.EventKind    `bson:"event_kind"`
	PostingDate   time.Time           `bson:"posting_date"`
	SourceKind    shared.DocumentKind `bson:"source_kind"`
	SourceID      uuid.UUID           `bson:"source_id"`
	Remark        string              `bson:"remark,omitempty"`
	MultiCurrency bool                `bson:"multi_currency"`
	Lines         []lineDocument      `bson:"lines"`
	AccountIDs    []uuid.UUID         `bson:"account_ids"`
	DocStatus     shared.DocStatus    `bson:"docstatus"`
	CorrelationID string              `bson:"correlation_id,omitempty"`
	CreatedAt     time.Time           `bson:"created_at"`
	CancelledAt   *time.Time          `bson:"cancelled_at,omitempty"`
	ProjectedAt   time.Time           `bson:"projected_at"`
}

// GeneralLedgerRepository implements the ledger.GeneralLedger interface for MongoDB
type GeneralLedgerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewGeneralLedgerRepository creates a new MongoDB general ledger repository
func NewGeneralLedgerRepository(logger *slog.Logger, db *mongo.Database) ledger.GeneralLedger {
	return &GeneralLedgerRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the projection of a posting, replacing any earlier projection of it.
// Replaying the same outbox message leaves a single document.
func (r *GeneralLedgerRepository) Upsert(ctx context.Context, p *ledger.Posting) error {
	collection := r.db.Collection(GeneralLedgerCollectionName)

	doc, err := toPostingDocument(p)
	if err != nil {
		return fmt.Errorf("failed to map posting %s: %w", p.ID, err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, opts); err != nil {
		r.logger.Error("Failed to upsert general ledger entry",
			"posting_id", p.ID.String(),
			"error", err)
		return fmt.Errorf("failed to upsert general ledger entry: %w", err)
	}

	return nil
}

// GetByPostingID retrieves the projection of one posting.
// Returns ErrEntryNotFound if the posting was never projected.
func (r *GeneralLedgerRepository) GetByPostingID(ctx context.Context, postingID uuid.UUID) (*ledger.Posting, error) {
	collection := r.db.Collection(GeneralLedgerCollectionName)

	var doc postingDocument
	err := collection.FindOne(ctx, bson.M{"_id": postingID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{PostingID: postingID}
		}
		r.logger.Error("Failed to get general ledger entry",
			"posting_id", postingID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get general ledger entry: %w", err)
	}

	return fromPostingDocument(&doc)
}

// GetByAccountID retrieves paginated postings touching an account.
// Results are sorted by posting date, newest first.
func (r *GeneralLedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Posting, error) {
	collection := r.db.Collection(GeneralLedgerCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "posting_date", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"account_ids": accountID}, opts)
	if err != nil {
		r.logger.Error("Failed to get general ledger entries",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get general ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode general ledger entries",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode general ledger entries: %w", err)
	}

	postings := make([]*ledger.Posting, 0, len(docs))
	for i := range docs {
		p, err := fromPostingDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}

	return postings, nil
}

// CountByAccountID counts the projected postings touching an account
func (r *GeneralLedgerRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(GeneralLedgerCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"account_ids": accountID})
	if err != nil {
		r.logger.Error("Failed to count general ledger entries",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count general ledger entries: %w", err)
	}

	return count, nil
}

// MarkCancelled flags a projected posting as cancelled.
// Returns ErrEntryNotFound if the posting was never projected.
func (r *GeneralLedgerRepository) MarkCancelled(ctx context.Context, postingID uuid.UUID) error {
	collection := r.db.Collection(GeneralLedgerCollectionName)

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"docstatus":    shared.DocStatusCancelled,
			"cancelled_at": now,
			"projected_at": now,
		},
	}

	result, err := collection.UpdateOne(ctx, bson.M{"_id": postingID}, update)
	if err != nil {
		r.logger.Error("Failed to cancel general ledger entry",
			"posting_id", postingID.String(),
			"error", err)
		return fmt.Errorf("failed to cancel general ledger entry: %w", err)
	}

	if result.MatchedCount == 0 {
		return ledger.ErrEntryNotFound{PostingID: postingID}
	}

	return nil
}

// Delete removes the projection of a posting.
// Returns ErrEntryNotFound if there was nothing to remove.
func (r *GeneralLedgerRepository) Delete(ctx context.Context, postingID uuid.UUID) error {
	collection := r.db.Collection(GeneralLedgerCollectionName)

	result, err := collection.DeleteOne(ctx, bson.M{"_id": postingID})
	if err != nil {
		r.logger.Error("Failed to delete general ledger entry",
			"posting_id", postingID.String(),
			"error", err)
		return fmt.Errorf("failed to delete general ledger entry: %w", err)
	}

	if result.DeletedCount == 0 {
		return ledger.ErrEntryNotFound{PostingID: postingID}
	}

	return nil
}

func toPostingDocument(p *ledger.Posting) (*postingDocument, error) {
	doc := &postingDocument{
		PostingID:     p.ID,
		Company:       p.Company,
		EventKind:     p.EventKind,
		PostingDate:   p.PostingDate,
		SourceKind:    p.SourceKind,
		SourceID:      p.SourceID,
		Remark:        p.Remark,
		MultiCurrency: p.MultiCurrency,
		Lines:         make([]lineDocument, 0, len(p.Lines)),
		DocStatus:     p.DocStatus,
		CorrelationID: p.CorrelationID,
		CreatedAt:     p.CreatedAt,
		CancelledAt:   p.CancelledAt,
		ProjectedAt:   time.Now(),
	}

	seen := make(map[uuid.UUID]bool, len(p.Lines))
	for _, l := range p.Lines {
		amount, err := toDecimal128(l.Amount)
		if err != nil {
			return nil, err
		}
		rate, err := toDecimal128(l.ExchangeRate)
		if err != nil {
			return nil, err
		}
		base, err := toDecimal128(l.BaseAmount)
		if err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, lineDocument{
			AccountID:    l.AccountID,
			Side:         l.Side,
			Amount:       amount,
			Currency:     l.Currency,
			ExchangeRate: rate,
			BaseAmount:   base,
			PartyID:      l.PartyID,
			Remark:       l.Remark,
		})
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			doc.AccountIDs = append(doc.AccountIDs, l.AccountID)
		}
	}

	return doc, nil
}

func fromPostingDocument(doc *postingDocument) (*ledger.Posting, error) {
	p := &ledger.Posting{
		ID:            doc.PostingID,
		Company:       doc.Company,
		EventKind:     doc.EventKind,
		PostingDate:   doc.PostingDate.UTC(),
		SourceKind:    doc.SourceKind,
		SourceID:      doc.SourceID,
		Remark:        doc.Remark,
		MultiCurrency: doc.MultiCurrency,
		Lines:         make([]ledger.Line, 0, len(doc.Lines)),
		DocStatus:     doc.DocStatus,
		CorrelationID: doc.CorrelationID,
		CreatedAt:     doc.CreatedAt,
		CancelledAt:   doc.CancelledAt,
	}

	for _, l := range doc.Lines {
		amount, err := fromDecimal128(l.Amount)
		if err != nil {
			return nil, err
		}
		rate, err := fromDecimal128(l.ExchangeRate)
		if err != nil {
			return nil, err
		}
		base, err := fromDecimal128(l.BaseAmount)
		if err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, ledger.Line{
			AccountID:    l.AccountID,
			Side:         l.Side,
			Amount:       amount,
			Currency:     l.Currency,
			ExchangeRate: rate,
			BaseAmount:   base,
			PartyID:      l.PartyID,
			Remark:       l.Remark,
		})
	}

	return p, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to Decimal128: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert Decimal128 %s: %w", v.String(), err)
	}
	return d, nil
}
