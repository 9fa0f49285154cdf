package account

import (
	"errors"
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName    = errors.New("account name cannot be empty")
	ErrEmptyCompany = errors.New("account company cannot be empty")
	ErrUnknownRoot  = errors.New("unknown account root type")
)

// Account represents a general ledger account of a company's chart of accounts
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Company   string          `json:"company"`
	RootType  shared.RootType `json:"root_type"`
	Currency  string          `json:"currency"`
	IsGroup   bool            `json:"is_group"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates a new ledger (non-group) account
func NewAccount(name, company string, rootType shared.RootType, currency string) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if company == "" {
		return nil, ErrEmptyCompany
	}
	switch rootType {
	case shared.RootTypeAsset, shared.RootTypeLiability, shared.RootTypeEquity, shared.RootTypeIncome, shared.RootTypeExpense:
	default:
		return nil, ErrUnknownRoot
	}
	code, err := shared.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Company:   company,
		RootType:  rootType,
		Currency:  code,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Postable checks that the account can carry lines for the given company in the given role.
// A role accepts one or more root types.
func (a *Account) Postable(company, role string, roots ...shared.RootType) error {
	if a.IsGroup {
		return shared.ErrPrecondition{Record: "account", ID: a.ID, Reason: role + " account is a group account"}
	}
	if a.Company != company {
		return shared.ErrPrecondition{Record: "account", ID: a.ID, Reason: role + " account belongs to company " + a.Company}
	}
	for _, r := range roots {
		if a.RootType == r {
			return nil
		}
	}
	return shared.ErrAccountClassification{AccountID: a.ID, Role: role, Want: roots, Got: a.RootType}
}
