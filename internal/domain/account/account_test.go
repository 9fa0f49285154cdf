package account

import (
	"testing"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		beforeCreation := time.Now()
		acc, err := NewAccount("Share Capital", "Acme Ltd", shared.RootTypeEquity, "gbp")
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, acc)

		assert.NotEqual(t, uuid.Nil, acc.ID, "Account ID should not be nil")
		assert.Equal(t, "Share Capital", acc.Name)
		assert.Equal(t, "Acme Ltd", acc.Company)
		assert.Equal(t, shared.RootTypeEquity, acc.RootType)
		assert.Equal(t, "GBP", acc.Currency)
		assert.False(t, acc.IsGroup)
		assert.Equal(t, 1, acc.Version, "Initial version should be 1")
		assert.WithinDuration(t, beforeCreation, acc.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := NewAccount("", "Acme Ltd", shared.RootTypeAsset, "GBP")
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("UnknownRootType", func(t *testing.T) {
		_, err := NewAccount("Bank", "Acme Ltd", shared.RootType("OTHER"), "GBP")
		assert.ErrorIs(t, err, ErrUnknownRoot)
	})

	t.Run("InvalidCurrency", func(t *testing.T) {
		_, err := NewAccount("Bank", "Acme Ltd", shared.RootTypeAsset, "POUNDS")
		assert.ErrorIs(t, err, shared.ErrInvalidCurrency)
	})
}

func TestAccount_Postable(t *testing.T) {
	acc := &Account{ID: uuid.New(), Name: "Bank", Company: "Acme Ltd", RootType: shared.RootTypeAsset, Currency: "GBP"}

	t.Run("MatchingRoot", func(t *testing.T) {
		assert.NoError(t, acc.Postable("Acme Ltd", "bank", shared.RootTypeAsset))
	})

	t.Run("WrongRoot", func(t *testing.T) {
		err := acc.Postable("Acme Ltd", "share capital", shared.RootTypeEquity)
		var classErr shared.ErrAccountClassification
		require.ErrorAs(t, err, &classErr)
		assert.Equal(t, shared.RootTypeAsset, classErr.Got)
		assert.Equal(t, "share capital", classErr.Role)
	})

	t.Run("OtherCompany", func(t *testing.T) {
		err := acc.Postable("Globex", "bank", shared.RootTypeAsset)
		assert.ErrorIs(t, err, shared.ErrPrecondition{})
	})

	t.Run("GroupAccount", func(t *testing.T) {
		group := *acc
		group.IsGroup = true
		err := group.Postable("Acme Ltd", "bank", shared.RootTypeAsset)
		assert.ErrorIs(t, err, shared.ErrPrecondition{})
	})
}
