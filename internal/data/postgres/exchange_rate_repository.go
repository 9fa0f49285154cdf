package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/equity-capital-ledger/internal/domain/exchange"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// ExchangeRateRepository implements the exchange.Repository interface for PostgreSQL
type ExchangeRateRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewExchangeRateRepository creates a new PostgreSQL exchange rate repository
func NewExchangeRateRepository(logger *slog.Logger, db *persistence.PostgresDB) exchange.Repository {
	return &ExchangeRateRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Latest returns the newest rate for the pair effective on or before date
func (r *ExchangeRateRepository) Latest(ctx context.Context, from, to string, date time.Time) (*exchange.Rate, error) {
	query := `
		SELECT from_currency, to_currency, effective_date, rate
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND effective_date <= $3
		ORDER BY effective_date DESC
		LIMIT 1
	`

	var rate exchange.Rate
	err := r.querier.QueryRow(ctx, query, from, to, date).Scan(
		&rate.From,
		&rate.To,
		&rate.EffectiveDate,
		&rate.Rate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrRateNotFound{From: from, To: to, Date: date}
		}
		r.logger.Error("Failed to get exchange rate", "from", from, "to", to, "date", date.Format(time.DateOnly), "error", err)
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	return &rate, nil
}

// Save inserts a rate or replaces the one stored for the same pair and date
func (r *ExchangeRateRepository) Save(ctx context.Context, rate *exchange.Rate) error {
	query := `
		INSERT INTO exchange_rates (from_currency, to_currency, effective_date, rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_currency, to_currency, effective_date) DO UPDATE SET rate = EXCLUDED.rate
	`

	_, err := r.querier.Exec(ctx, query, rate.From, rate.To, rate.EffectiveDate, rate.Rate)
	if err != nil {
		r.logger.Error("Failed to save exchange rate", "from", rate.From, "to", rate.To, "error", err)
		return fmt.Errorf("failed to save exchange rate: %w", err)
	}

	return nil
}
