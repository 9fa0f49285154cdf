package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidAmount   = errors.New("amount must be positive")
)

// ErrPrecondition indicates a record is not in a state that permits the operation
type ErrPrecondition struct {
	Record string
	ID     uuid.UUID
	Reason string
}

func (e ErrPrecondition) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("precondition failed for %s: %s", e.Record, e.Reason)
	}
	return fmt.Sprintf("precondition failed for %s %s: %s", e.Record, e.ID, e.Reason)
}

// Is implements the errors.Is interface for ErrPrecondition
func (e ErrPrecondition) Is(target error) bool {
	_, ok := target.(ErrPrecondition)
	return ok
}

// ErrAlreadyExists indicates a derived record was already created; it names the existing reference
type ErrAlreadyExists struct {
	Record     string
	ID         uuid.UUID
	Existing   DocumentKind
	ExistingID uuid.UUID
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s %s already has %s %s", e.Record, e.ID, e.Existing, e.ExistingID)
}

// Is implements the errors.Is interface for ErrAlreadyExists
func (e ErrAlreadyExists) Is(target error) bool {
	_, ok := target.(ErrAlreadyExists)
	return ok
}

// ErrNotFound indicates a missing record
type ErrNotFound struct {
	Record string
	ID     uuid.UUID
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Record, e.ID)
}

// Is implements the errors.Is interface for ErrNotFound.
// A target with an empty Record matches any missing record.
func (e ErrNotFound) Is(target error) bool {
	t, ok := target.(ErrNotFound)
	if !ok {
		return false
	}
	if t.Record == "" {
		return true
	}
	return t.Record == e.Record && (t.ID == uuid.Nil || t.ID == e.ID)
}

// ErrRateNotFound indicates that no exchange rate is available for a currency pair at a date
type ErrRateNotFound struct {
	From string
	To   string
	Date time.Time
}

func (e ErrRateNotFound) Error() string {
	return fmt.Sprintf("exchange rate not found for %s/%s on or before %s", e.From, e.To, e.Date.Format(time.DateOnly))
}

// Is implements the errors.Is interface for ErrRateNotFound
func (e ErrRateNotFound) Is(target error) bool {
	_, ok := target.(ErrRateNotFound)
	return ok
}

// ErrInvalidPeriod indicates an accrual period whose end is not after its start
type ErrInvalidPeriod struct {
	Start time.Time
	End   time.Time
}

func (e ErrInvalidPeriod) Error() string {
	return fmt.Sprintf("invalid period: end %s is not after start %s", e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
}

// Is implements the errors.Is interface for ErrInvalidPeriod
func (e ErrInvalidPeriod) Is(target error) bool {
	_, ok := target.(ErrInvalidPeriod)
	return ok
}

// ErrZeroOrNegativeResult indicates a computed quantity that must be positive was not
type ErrZeroOrNegativeResult struct {
	Quantity string
	Value    decimal.Decimal
}

func (e ErrZeroOrNegativeResult) Error() string {
	return fmt.Sprintf("computed %s must be positive, got %s", e.Quantity, e.Value.String())
}

// Is implements the errors.Is interface for ErrZeroOrNegativeResult
func (e ErrZeroOrNegativeResult) Is(target error) bool {
	_, ok := target.(ErrZeroOrNegativeResult)
	return ok
}

// ErrAccountClassification indicates an account used in a role its root type does not allow
type ErrAccountClassification struct {
	AccountID uuid.UUID
	Role      string
	Want      []RootType
	Got       RootType
}

func (e ErrAccountClassification) Error() string {
	want := make([]string, len(e.Want))
	for i, w := range e.Want {
		want[i] = string(w)
	}
	return fmt.Sprintf("account %s cannot be used as %s: root type %s, want %s",
		e.AccountID, e.Role, e.Got, strings.Join(want, " or "))
}

// Is implements the errors.Is interface for ErrAccountClassification
func (e ErrAccountClassification) Is(target error) bool {
	_, ok := target.(ErrAccountClassification)
	return ok
}

// ErrPostingImbalance indicates a line set whose base-currency debits and credits do not reconcile
type ErrPostingImbalance struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e ErrPostingImbalance) Error() string {
	return fmt.Sprintf("posting imbalance: debit %s, credit %s", e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

// Is implements the errors.Is interface for ErrPostingImbalance
func (e ErrPostingImbalance) Is(target error) bool {
	_, ok := target.(ErrPostingImbalance)
	return ok
}

// ErrInsufficientTerms indicates that neither a discount nor a valuation cap price could be computed
type ErrInsufficientTerms struct{}

func (e ErrInsufficientTerms) Error() string {
	return "insufficient conversion terms: need a discount with a round price or a valuation cap with a share count"
}

// ErrCascadeIncomplete indicates that a cancel or delete cascade left some steps undone
type ErrCascadeIncomplete struct {
	Root   string
	Failed int
	Cause  error
}

func (e ErrCascadeIncomplete) Error() string {
	return fmt.Sprintf("cascade from %s incomplete: %d step(s) failed: %v", e.Root, e.Failed, e.Cause)
}

func (e ErrCascadeIncomplete) Unwrap() error {
	return e.Cause
}

// Is implements the errors.Is interface for ErrCascadeIncomplete
func (e ErrCascadeIncomplete) Is(target error) bool {
	_, ok := target.(ErrCascadeIncomplete)
	return ok
}
