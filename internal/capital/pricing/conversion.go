// Package pricing computes the share price at which a convertible loan note converts.
package pricing

import (
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimal places kept on a conversion price
const PricePrecision = 6

var hundred = decimal.NewFromInt(100)

// Terms are the optional inputs to a conversion price. Discount is a percentage.
type Terms struct {
	NextRoundPrice     *decimal.Decimal
	DiscountRate       *decimal.Decimal
	ValuationCap       *decimal.Decimal
	FullyDilutedShares *decimal.Decimal
}

// ConversionPrice returns the lower of the discounted next-round price and the
// valuation cap price, using whichever of the two can be computed.
func ConversionPrice(t Terms) (decimal.Decimal, error) {
	if err := t.validate(); err != nil {
		return decimal.Zero, err
	}

	var candidates []decimal.Decimal
	if t.DiscountRate != nil && t.NextRoundPrice != nil {
		factor := hundred.Sub(*t.DiscountRate).Div(hundred)
		candidates = append(candidates, t.NextRoundPrice.Mul(factor).Round(PricePrecision))
	}
	if t.ValuationCap != nil && t.FullyDilutedShares != nil {
		candidates = append(candidates, t.ValuationCap.DivRound(*t.FullyDilutedShares, PricePrecision))
	}

	if len(candidates) == 0 {
		return decimal.Zero, shared.ErrInsufficientTerms{}
	}
	price := decimal.Min(candidates[0], candidates[1:]...)
	if !price.IsPositive() {
		return decimal.Zero, shared.ErrZeroOrNegativeResult{Quantity: "conversion price", Value: price}
	}
	return price, nil
}

func (t Terms) validate() error {
	positive := map[string]*decimal.Decimal{
		"next round price":     t.NextRoundPrice,
		"valuation cap":        t.ValuationCap,
		"fully diluted shares": t.FullyDilutedShares,
		"discount rate":        t.DiscountRate,
	}
	for name, v := range positive {
		if v != nil && !v.IsPositive() {
			return shared.ErrPrecondition{Record: "conversion terms", Reason: name + " must be positive"}
		}
	}
	if t.DiscountRate != nil && t.DiscountRate.GreaterThanOrEqual(hundred) {
		return shared.ErrPrecondition{Record: "conversion terms", Reason: "discount rate must be below 100"}
	}
	return nil
}
