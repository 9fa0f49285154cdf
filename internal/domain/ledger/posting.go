package ledger

import (
	"time"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the debit or credit side of a posting line
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Line is one leg of a posting. Amount is in the account currency; BaseAmount in the company base currency.
type Line struct {
	AccountID    uuid.UUID       `json:"account_id" bson:"account_id"`
	Side         Side            `json:"side" bson:"side"`
	Amount       decimal.Decimal `json:"amount" bson:"-"`
	Currency     string          `json:"currency" bson:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate" bson:"-"`
	BaseAmount   decimal.Decimal `json:"base_amount" bson:"-"`
	PartyID      *uuid.UUID      `json:"party_id,omitempty" bson:"party_id,omitempty"`
	Remark       string          `json:"remark,omitempty" bson:"remark,omitempty"`
}

// Posting is the set of ledger lines produced by one capital event
type Posting struct {
	ID            uuid.UUID           `json:"id"`
	Company       string              `json:"company"`
	EventKind     shared.EventKind    `json:"event_kind"`
	PostingDate   time.Time           `json:"posting_date"`
	SourceKind    shared.DocumentKind `json:"source_kind"`
	SourceID      uuid.UUID           `json:"source_id"`
	Remark        string              `json:"remark,omitempty"`
	MultiCurrency bool                `json:"multi_currency"`
	Lines         []Line              `json:"lines"`
	DocStatus     shared.DocStatus    `json:"docstatus"`
	CorrelationID string              `json:"correlation_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
}

// NewPosting creates a submitted posting and checks its lines balance
func NewPosting(company string, kind shared.EventKind, date time.Time, sourceKind shared.DocumentKind, sourceID uuid.UUID, lines []Line) (*Posting, error) {
	if err := CheckBalance(lines); err != nil {
		return nil, err
	}
	multi := false
	for _, l := range lines {
		if l.Currency != lines[0].Currency {
			multi = true
		}
	}
	return &Posting{
		ID:            uuid.New(),
		Company:       company,
		EventKind:     kind,
		PostingDate:   shared.NormalizeDate(date),
		SourceKind:    sourceKind,
		SourceID:      sourceID,
		MultiCurrency: multi,
		Lines:         lines,
		DocStatus:     shared.DocStatusSubmitted,
		CreatedAt:     time.Now(),
	}, nil
}

// Totals sums base-currency debits and credits
func Totals(lines []Line) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Side == SideDebit {
			debit = debit.Add(l.BaseAmount)
		} else {
			credit = credit.Add(l.BaseAmount)
		}
	}
	return debit, credit
}

// CheckBalance fails with shared.ErrPostingImbalance when base debits and credits
// differ by more than shared.BalanceTolerance, or when there is nothing to post.
func CheckBalance(lines []Line) error {
	debit, credit := Totals(lines)
	if len(lines) == 0 || debit.IsZero() || debit.Sub(credit).Abs().GreaterThan(shared.BalanceTolerance) {
		return shared.ErrPostingImbalance{Debit: debit, Credit: credit}
	}
	return nil
}

// Cancel marks the posting as cancelled
func (p *Posting) Cancel() error {
	if p.DocStatus != shared.DocStatusSubmitted {
		return shared.ErrPrecondition{Record: "posting", ID: p.ID, Reason: "only submitted postings can be cancelled"}
	}
	now := time.Now()
	p.DocStatus = shared.DocStatusCancelled
	p.CancelledAt = &now
	return nil
}
