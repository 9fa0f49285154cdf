package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is the value of one unit of From expressed in To, effective from a date
type Rate struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	EffectiveDate time.Time       `json:"effective_date"`
	Rate          decimal.Decimal `json:"rate"`
}

// Repository looks up stored exchange rates
type Repository interface {
	// Latest returns the most recent rate for the pair effective on or before date.
	// It returns shared.ErrRateNotFound when there is none.
	Latest(ctx context.Context, from, to string, date time.Time) (*Rate, error)
	Save(ctx context.Context, rate *Rate) error
}
