// Package fx resolves exchange rates between transaction and base currencies.
package fx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/equity-capital-ledger/internal/domain/exchange"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// inversePrecision is the number of decimal places kept when inverting a stored rate
const inversePrecision = 10

var one = decimal.NewFromInt(1)

// RateProvider supplies stored rates effective on or before a date
type RateProvider interface {
	Latest(ctx context.Context, from, to string, date time.Time) (*exchange.Rate, error)
}

// Resolver is the rate lookup used by the capital operations
type Resolver interface {
	Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
}

// Converter resolves rates through a provider and caches successful lookups
type Converter struct {
	provider RateProvider
	cache    *cache.Cache
	logger   *slog.Logger
}

func NewConverter(logger *slog.Logger, provider RateProvider, ttl, cleanupInterval time.Duration) *Converter {
	return &Converter{
		provider: provider,
		cache:    cache.New(ttl, cleanupInterval),
		logger:   logger.With("component", "fx_converter"),
	}
}

// Rate returns the value of one unit of from in to at date. Same-currency pairs are always 1.
// When only the inverse pair is stored its reciprocal is used. A missing rate is an
// shared.ErrRateNotFound error and is never replaced by a default.
func (c *Converter) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}
	date = shared.NormalizeDate(date)

	cacheKey := fmt.Sprintf("rate-%s-%s-%s", from, to, date.Format(time.DateOnly))
	if rate, found := c.cache.Get(cacheKey); found {
		return rate.(decimal.Decimal), nil
	}

	rate, err := c.lookup(ctx, from, to, date)
	if err == nil {
		c.cache.Set(cacheKey, rate, cache.DefaultExpiration)
		return rate, nil
	}
	if !errors.Is(err, shared.ErrRateNotFound{}) {
		return decimal.Zero, err
	}

	inverse, invErr := c.lookup(ctx, to, from, date)
	if invErr != nil {
		if errors.Is(invErr, shared.ErrRateNotFound{}) {
			c.logger.Warn("Exchange rate not found", "from", from, "to", to, "date", date.Format(time.DateOnly))
			return decimal.Zero, shared.ErrRateNotFound{From: from, To: to, Date: date}
		}
		return decimal.Zero, invErr
	}

	rate = one.DivRound(inverse, inversePrecision)
	c.cache.Set(cacheKey, rate, cache.DefaultExpiration)
	return rate, nil
}

// Convert expresses amount in the target currency, rounded to the amount precision
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	rate, err := c.Rate(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}
	return shared.RoundAmount(amount.Mul(rate)), nil
}

func (c *Converter) lookup(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	stored, err := c.provider.Latest(ctx, from, to, date)
	if err != nil {
		if errors.Is(err, shared.ErrRateNotFound{}) {
			return decimal.Zero, err
		}
		c.logger.Error("Failed to look up exchange rate", "from", from, "to", to, "error", err)
		return decimal.Zero, fmt.Errorf("failed to look up exchange rate %s/%s: %w", from, to, err)
	}
	if !stored.Rate.IsPositive() {
		return decimal.Zero, shared.ErrRateNotFound{From: from, To: to, Date: date}
	}
	return stored.Rate, nil
}
