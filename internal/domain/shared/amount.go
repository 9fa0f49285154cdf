package shared

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of decimal places money amounts are rounded to
const AmountPrecision = 2

var (
	// BalanceTolerance is the largest base-currency difference accepted between debits and credits
	BalanceTolerance = decimal.New(1, -AmountPrecision)

	hundred = decimal.NewFromInt(100)
)

// RoundAmount rounds a money amount to AmountPrecision places, half away from zero
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPrecision)
}

// Percent converts a percentage (e.g. 10 for 10%) into a fraction
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(hundred)
}

// NormalizeCurrency upper-cases a currency code and checks it against the ISO 4217 table
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 || money.GetCurrency(code) == nil {
		return "", ErrInvalidCurrency
	}
	return code, nil
}

// FormatAmount renders an amount with its currency symbol, e.g. "£1,250.00"
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(AmountPrecision) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// NormalizeDate truncates t to midnight UTC so day arithmetic is calendar based
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from start (inclusive) to end (exclusive)
func DaysBetween(start, end time.Time) int64 {
	return int64(NormalizeDate(end).Sub(NormalizeDate(start)).Hours() / 24)
}
