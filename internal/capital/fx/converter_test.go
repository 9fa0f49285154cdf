package fx

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/equity-capital-ledger/internal/domain/exchange"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Latest(ctx context.Context, from, to string, date time.Time) (*exchange.Rate, error) {
	args := m.Called(ctx, from, to, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Rate), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var day = time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

func TestConverter_Rate(t *testing.T) {
	ctx := context.Background()

	t.Run("SameCurrencyIsOne", func(t *testing.T) {
		provider := new(MockRateProvider)
		c := NewConverter(newTestLogger(), provider, time.Hour, time.Hour)

		rate, err := c.Rate(ctx, "GBP", "GBP", day)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(1)))
		provider.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DirectRateIsCached", func(t *testing.T) {
		provider := new(MockRateProvider)
		c := NewConverter(newTestLogger(), provider, time.Hour, time.Hour)
		provider.On("Latest", ctx, "USD", "GBP", day).
			Return(&exchange.Rate{From: "USD", To: "GBP", Rate: decimal.RequireFromString("0.79")}, nil).Once()

		first, err := c.Rate(ctx, "USD", "GBP", day.Add(15*time.Hour))
		require.NoError(t, err)
		second, err := c.Rate(ctx, "USD", "GBP", day)
		require.NoError(t, err)

		assert.Equal(t, "0.79", first.String())
		assert.True(t, first.Equal(second))
		provider.AssertExpectations(t)
	})

	t.Run("InverseRate", func(t *testing.T) {
		provider := new(MockRateProvider)
		c := NewConverter(newTestLogger(), provider, time.Hour, time.Hour)
		provider.On("Latest", ctx, "GBP", "EUR", day).Return(nil, shared.ErrRateNotFound{From: "GBP", To: "EUR", Date: day})
		provider.On("Latest", ctx, "EUR", "GBP", day).
			Return(&exchange.Rate{From: "EUR", To: "GBP", Rate: decimal.RequireFromString("0.8")}, nil)

		rate, err := c.Rate(ctx, "GBP", "EUR", day)
		require.NoError(t, err)
		assert.Equal(t, "1.25", rate.String())
	})

	t.Run("MissingRateIsAnError", func(t *testing.T) {
		provider := new(MockRateProvider)
		c := NewConverter(newTestLogger(), provider, time.Hour, time.Hour)
		provider.On("Latest", ctx, "JPY", "GBP", day).Return(nil, shared.ErrRateNotFound{From: "JPY", To: "GBP", Date: day})
		provider.On("Latest", ctx, "GBP", "JPY", day).Return(nil, shared.ErrRateNotFound{From: "GBP", To: "JPY", Date: day})

		rate, err := c.Rate(ctx, "JPY", "GBP", day)
		var notFound shared.ErrRateNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "JPY", notFound.From)
		assert.True(t, rate.IsZero())
	})

	t.Run("ProviderFailure", func(t *testing.T) {
		provider := new(MockRateProvider)
		c := NewConverter(newTestLogger(), provider, time.Hour, time.Hour)
		dbErr := errors.New("connection refused")
		provider.On("Latest", ctx, "USD", "GBP", day).Return(nil, dbErr)

		_, err := c.Rate(ctx, "USD", "GBP", day)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, shared.ErrRateNotFound{})
	})
}

func TestConverter_Convert(t *testing.T) {
	ctx := context.Background()
	provider := new(MockRateProvider)
	c := NewConverter(newTestLogger(), provider, time.Hour, time.Hour)
	provider.On("Latest", ctx, "USD", "GBP", day).
		Return(&exchange.Rate{Rate: decimal.RequireFromString("0.7913")}, nil)

	amount, err := c.Convert(ctx, decimal.NewFromInt(375), "USD", "GBP", day)
	require.NoError(t, err)
	assert.Equal(t, "296.74", amount.StringFixed(2))
}
