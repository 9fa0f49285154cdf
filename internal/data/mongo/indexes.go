package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the secondary indexes the read paths rely on. Safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ledgerIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_ids", Value: 1}, {Key: "posting_date", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_account_posting_date"),
		},
		{
			Keys:    bson.D{{Key: "source_kind", Value: 1}, {Key: "source_id", Value: 1}},
			Options: options.Index().SetName("idx_source"),
		},
	}
	if _, err := db.Collection(GeneralLedgerCollectionName).Indexes().CreateMany(ctx, ledgerIndexes); err != nil {
		return fmt.Errorf("failed to create general ledger indexes: %w", err)
	}

	runIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "loan_note_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_loan_note_created_at"),
		},
	}
	if _, err := db.Collection(AccrualRunCollectionName).Indexes().CreateMany(ctx, runIndexes); err != nil {
		return fmt.Errorf("failed to create accrual run indexes: %w", err)
	}

	return nil
}
