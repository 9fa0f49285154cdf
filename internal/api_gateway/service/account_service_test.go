package service

import (
	"context"
	"errors"
	"testing"

	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/company"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		companies := new(MockCompanyRepository)
		svc := NewAccountService(accounts, companies)

		companies.On("GetByName", ctx, "Acme Ltd").Return(&company.Company{Name: "Acme Ltd", BaseCurrency: "GBP"}, nil).Once()
		accounts.On("Create", ctx, mock.MatchedBy(func(a *account.Account) bool {
			return a.Name == "Share Capital" && a.RootType == shared.RootTypeEquity && a.Currency == "GBP"
		})).Return(nil).Once()

		acc, err := svc.CreateAccount(ctx, "Share Capital", "Acme Ltd", shared.RootTypeEquity, "gbp")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, acc.ID)
		accounts.AssertExpectations(t)
		companies.AssertExpectations(t)
	})

	t.Run("UnknownCompany", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		companies := new(MockCompanyRepository)
		svc := NewAccountService(accounts, companies)

		companies.On("GetByName", ctx, "Nope Ltd").Return(nil, shared.ErrNotFound{Record: "company"}).Once()

		_, err := svc.CreateAccount(ctx, "Bank", "Nope Ltd", shared.RootTypeAsset, "GBP")
		assert.ErrorIs(t, err, shared.ErrNotFound{})
		accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("InvalidRootType", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		companies := new(MockCompanyRepository)
		svc := NewAccountService(accounts, companies)

		companies.On("GetByName", ctx, "Acme Ltd").Return(&company.Company{Name: "Acme Ltd"}, nil).Once()

		_, err := svc.CreateAccount(ctx, "Bank", "Acme Ltd", shared.RootType("OTHER"), "GBP")
		assert.ErrorIs(t, err, account.ErrUnknownRoot)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		companies := new(MockCompanyRepository)
		svc := NewAccountService(accounts, companies)

		companies.On("GetByName", ctx, "Acme Ltd").Return(&company.Company{Name: "Acme Ltd"}, nil).Once()
		accounts.On("Create", ctx, mock.Anything).Return(errors.New("db error")).Once()

		_, err := svc.CreateAccount(ctx, "Bank", "Acme Ltd", shared.RootTypeAsset, "GBP")
		assert.EqualError(t, err, "db error")
	})
}

func TestAccountService_GetAccountByID(t *testing.T) {
	ctx := context.Background()
	accounts := new(MockAccountRepository)
	svc := NewAccountService(accounts, new(MockCompanyRepository))

	id := uuid.New()
	accounts.On("GetByID", ctx, id).Return(nil, account.ErrAccountNotFound{AccountID: id}).Once()

	_, err := svc.GetAccountByID(ctx, id)
	assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: id})
}
