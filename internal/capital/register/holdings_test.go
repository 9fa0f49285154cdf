package register

import (
	"testing"
	"time"

	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func mv(kind shared.MovementKind, from, to *uuid.UUID, shares int64, day int) *movement.Movement {
	return &movement.Movement{
		ID:                uuid.New(),
		Kind:              kind,
		FromShareholderID: from,
		ToShareholderID:   to,
		ShareClass:        "ORD",
		NumberOfShares:    shares,
		TotalAmountBase:   decimal.NewFromInt(shares),
		TransactionDate:   base.AddDate(0, 0, day),
		CreatedAt:         base.AddDate(0, 0, day),
		DocStatus:         shared.DocStatusSubmitted,
	}
}

func holder() *uuid.UUID {
	id := uuid.New()
	return &id
}

func TestHoldings_SingleHolder(t *testing.T) {
	a := holder()
	rows := Holdings([]*movement.Movement{
		mv(shared.MovementKindInitialShareIssuance, nil, a, 100, 0),
		mv(shared.MovementKindShareSubscription, nil, a, 50, 1),
		mv(shared.MovementKindShareBuyback, a, nil, 30, 2),
	}, base.AddDate(0, 0, 10), "")

	require.Len(t, rows, 1)
	assert.Equal(t, *a, rows[0].ShareholderID)
	assert.Equal(t, int64(120), rows[0].SharesHeld)
	assert.Equal(t, "100", rows[0].OwnershipPercentage.String())
	assert.Equal(t, "120", rows[0].TotalInvestmentBase.String())
}

func TestHoldings_TransferBetweenHolders(t *testing.T) {
	a, b := holder(), holder()
	rows := Holdings([]*movement.Movement{
		mv(shared.MovementKindInitialShareIssuance, nil, a, 300, 0),
		mv(shared.MovementKindShareTransfer, a, b, 100, 1),
	}, base.AddDate(0, 0, 1), "")

	require.Len(t, rows, 2)
	assert.Equal(t, *a, rows[0].ShareholderID)
	assert.Equal(t, int64(200), rows[0].SharesHeld)
	assert.Equal(t, "66.6667", rows[0].OwnershipPercentage.String())
	assert.Equal(t, int64(100), rows[1].SharesHeld)
	assert.Equal(t, "33.3333", rows[1].OwnershipPercentage.String())
}

func TestHoldings_SelfTransferIsAppliedOnce(t *testing.T) {
	a := holder()
	rows := Holdings([]*movement.Movement{
		mv(shared.MovementKindInitialShareIssuance, nil, a, 100, 0),
		mv(shared.MovementKindShareTransfer, a, a, 10, 1),
	}, base.AddDate(0, 0, 1), "")

	require.Len(t, rows, 1)
	assert.Equal(t, int64(90), rows[0].SharesHeld)
}

func TestHoldings_Filters(t *testing.T) {
	a, b := holder(), holder()
	pref := mv(shared.MovementKindShareSubscription, nil, b, 40, 0)
	pref.ShareClass = "PREF"
	cancelled := mv(shared.MovementKindShareSubscription, nil, b, 500, 0)
	cancelled.DocStatus = shared.DocStatusCancelled
	movements := []*movement.Movement{
		mv(shared.MovementKindInitialShareIssuance, nil, a, 100, 0),
		mv(shared.MovementKindCLNConversion, nil, b, 60, 5),
		pref,
		cancelled,
	}

	t.Run("AsOfExcludesLaterMovements", func(t *testing.T) {
		rows := Holdings(movements, base.AddDate(0, 0, 4), "ORD")
		require.Len(t, rows, 1)
		assert.Equal(t, "100", rows[0].OwnershipPercentage.String())
	})

	t.Run("ShareClassFilter", func(t *testing.T) {
		rows := Holdings(movements, base.AddDate(0, 0, 5), "PREF")
		require.Len(t, rows, 1)
		assert.Equal(t, *b, rows[0].ShareholderID)
		assert.Equal(t, int64(40), rows[0].SharesHeld)
	})

	t.Run("OwnershipIsPerClass", func(t *testing.T) {
		rows := Holdings(movements, base.AddDate(0, 0, 5), "")
		require.Len(t, rows, 3)
		totals := map[string]decimal.Decimal{}
		for _, r := range rows {
			totals[r.ShareClass] = totals[r.ShareClass].Add(r.OwnershipPercentage)
		}
		assert.Equal(t, "100", totals["ORD"].String())
		assert.Equal(t, "100", totals["PREF"].String())
	})
}

func TestHoldings_SoleHolderOfEachClassOwnsAll(t *testing.T) {
	a, b := holder(), holder()
	pref := mv(shared.MovementKindShareSubscription, nil, b, 300, 0)
	pref.ShareClass = "PREF"

	rows := Holdings([]*movement.Movement{
		mv(shared.MovementKindInitialShareIssuance, nil, a, 100, 0),
		pref,
	}, base, "")

	require.Len(t, rows, 2)
	assert.Equal(t, "PREF", rows[0].ShareClass)
	assert.Equal(t, "100", rows[0].OwnershipPercentage.String())
	assert.Equal(t, "ORD", rows[1].ShareClass)
	assert.Equal(t, "100", rows[1].OwnershipPercentage.String())
}

func TestHoldings_NonPositiveHoldingsDropped(t *testing.T) {
	a, b := holder(), holder()
	rows := Holdings([]*movement.Movement{
		mv(shared.MovementKindInitialShareIssuance, nil, a, 100, 0),
		mv(shared.MovementKindShareTransfer, a, b, 100, 1),
		mv(shared.MovementKindShareBuyback, b, nil, 100, 2),
	}, base.AddDate(0, 0, 2), "")
	assert.Empty(t, rows)
}

func TestHoldings_ChronologicalOrderRegardlessOfInput(t *testing.T) {
	a, b := holder(), holder()
	rows := Holdings([]*movement.Movement{
		mv(shared.MovementKindShareTransfer, a, b, 50, 3),
		mv(shared.MovementKindInitialShareIssuance, nil, a, 100, 0),
	}, base.AddDate(0, 0, 3), "")

	require.Len(t, rows, 2)
	assert.Equal(t, int64(50), rows[0].SharesHeld)
	assert.Equal(t, int64(50), rows[1].SharesHeld)
}
