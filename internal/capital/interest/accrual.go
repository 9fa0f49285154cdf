// Package interest computes interest on convertible loan notes over a date range.
package interest

import (
	"fmt"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DaysInYear is the day-count basis of the annual rate
const DaysInYear = 365

// powPrecision is the working precision of fractional compounding
const powPrecision = 16

var (
	one       = decimal.NewFromInt(1)
	yearBasis = decimal.NewFromInt(DaysInYear)
)

// Input describes one accrual period. AnnualRate is a percentage.
type Input struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal
	Method     shared.InterestMethod
	Start      time.Time
	End        time.Time
}

// Result is the interest owed for a period, rounded to the amount precision
type Result struct {
	Start    time.Time
	End      time.Time
	Days     int64
	Interest decimal.Decimal
}

// Accrue computes interest from Start (inclusive) to End (exclusive).
//
//	simple:   principal × rate × days / 365
//	compound: principal × ((1 + rate)^(days/365) − 1)
//
// It performs no deduplication; callers decide which periods to accrue.
func Accrue(in Input) (Result, error) {
	start, end := shared.NormalizeDate(in.Start), shared.NormalizeDate(in.End)
	days := shared.DaysBetween(start, end)
	if days <= 0 {
		return Result{}, shared.ErrInvalidPeriod{Start: start, End: end}
	}

	rate := shared.Percent(in.AnnualRate)
	dayCount := decimal.NewFromInt(days)

	var interest decimal.Decimal
	switch in.Method {
	case shared.InterestMethodSimple:
		interest = in.Principal.Mul(rate).Mul(dayCount).Div(yearBasis)
	case shared.InterestMethodCompound:
		growth, err := one.Add(rate).PowWithPrecision(dayCount.Div(yearBasis), powPrecision)
		if err != nil {
			return Result{}, fmt.Errorf("failed to compound interest: %w", err)
		}
		interest = in.Principal.Mul(growth.Sub(one))
	default:
		return Result{}, shared.ErrPrecondition{Record: "interest method", Reason: "unsupported method " + string(in.Method)}
	}

	interest = shared.RoundAmount(interest)
	if !interest.IsPositive() {
		return Result{}, shared.ErrZeroOrNegativeResult{Quantity: "interest", Value: interest}
	}

	return Result{Start: start, End: end, Days: days, Interest: interest}, nil
}

// Remarks describes an accrual for the record and posting narration
func Remarks(in Input, r Result, currency string) string {
	return fmt.Sprintf("%s interest at %s%% p.a. on %s for %d days (%s to %s)",
		in.Method, in.AnnualRate.String(), shared.FormatAmount(in.Principal, currency), r.Days,
		r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
}
