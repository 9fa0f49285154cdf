package service

import (
	"context"

	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/company"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	companyRepo company.Repository
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo account.Repository, companyRepo company.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		companyRepo: companyRepo,
	}
}

// CreateAccount creates a ledger account after checking the company exists
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, name, companyName string, rootType shared.RootType, currency string) (*account.Account, error) {
	if _, err := s.companyRepo.GetByName(ctx, companyName); err != nil {
		return nil, err
	}

	acc, err := account.NewAccount(name, companyName, rootType, currency)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

func (s *AccountServiceImpl) ListAccounts(ctx context.Context, companyName string) ([]*account.Account, error) {
	return s.accountRepo.ListByCompany(ctx, companyName)
}
