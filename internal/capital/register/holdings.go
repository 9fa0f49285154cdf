// Package register aggregates share movements into a point-in-time holdings register.
package register

import (
	"sort"
	"time"

	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PercentPrecision is the number of decimal places kept on ownership percentages
const PercentPrecision = 4

// Holding is one row of the register
type Holding struct {
	ShareholderID       uuid.UUID       `json:"shareholder_id"`
	ShareholderName     string          `json:"shareholder_name,omitempty"`
	ShareClass          string          `json:"share_class"`
	SharesHeld          int64           `json:"shares_held"`
	OwnershipPercentage decimal.Decimal `json:"ownership_percentage"`
	TotalInvestmentBase decimal.Decimal `json:"total_investment_base"`
}

type key struct {
	holder uuid.UUID
	class  string
}

// Holdings folds movements dated on or before asOf, in chronological order, into
// per-holder, per-class share counts. Issuances credit the receiver, buybacks debit
// the seller, transfers move shares between the two parties, and a transfer whose
// parties are the same holder is a correction that reduces that holder once.
// Rows with no remaining shares are dropped and the rest are sorted by size.
// Ownership is the holder's share of its own class.
func Holdings(movements []*movement.Movement, asOf time.Time, shareClass string) []Holding {
	asOf = shared.NormalizeDate(asOf)

	ordered := make([]*movement.Movement, 0, len(movements))
	for _, m := range movements {
		if m.DocStatus != shared.DocStatusSubmitted {
			continue
		}
		if shared.NormalizeDate(m.TransactionDate).After(asOf) {
			continue
		}
		if shareClass != "" && m.ShareClass != shareClass {
			continue
		}
		ordered = append(ordered, m)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].TransactionDate.Equal(ordered[j].TransactionDate) {
			return ordered[i].TransactionDate.Before(ordered[j].TransactionDate)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	shares := make(map[key]int64)
	invested := make(map[key]decimal.Decimal)
	var order []key
	apply := func(holder *uuid.UUID, class string, delta int64, amount decimal.Decimal) {
		if holder == nil {
			return
		}
		k := key{holder: *holder, class: class}
		if _, seen := shares[k]; !seen {
			order = append(order, k)
			invested[k] = decimal.Zero
		}
		shares[k] += delta
		invested[k] = invested[k].Add(amount)
	}

	for _, m := range ordered {
		n := m.NumberOfShares
		switch {
		case m.Kind.IsIssuance():
			apply(m.ToShareholderID, m.ShareClass, n, m.TotalAmountBase)
		case m.Kind == shared.MovementKindShareBuyback:
			apply(m.FromShareholderID, m.ShareClass, -n, m.TotalAmountBase.Neg())
		case m.Kind == shared.MovementKindShareTransfer:
			if sameHolder(m.FromShareholderID, m.ToShareholderID) {
				apply(m.FromShareholderID, m.ShareClass, -n, decimal.Zero)
				continue
			}
			apply(m.FromShareholderID, m.ShareClass, -n, m.TotalAmountBase.Neg())
			apply(m.ToShareholderID, m.ShareClass, n, m.TotalAmountBase)
		}
	}

	totals := make(map[string]int64)
	rows := make([]Holding, 0, len(order))
	for _, k := range order {
		if shares[k] <= 0 {
			continue
		}
		totals[k.class] += shares[k]
		rows = append(rows, Holding{
			ShareholderID:       k.holder,
			ShareClass:          k.class,
			SharesHeld:          shares[k],
			TotalInvestmentBase: invested[k],
		})
	}

	for i := range rows {
		rows[i].OwnershipPercentage = ownership(rows[i].SharesHeld, totals[rows[i].ShareClass])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SharesHeld > rows[j].SharesHeld
	})
	return rows
}

func ownership(held, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(held).Mul(decimal.NewFromInt(100)).DivRound(decimal.NewFromInt(total), PercentPrecision)
}

func sameHolder(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}
