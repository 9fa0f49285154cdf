package loannote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Accrual is one interest accrual record of a loan note. Records are immutable
// except for the posting reference, which is cleared when the posting is cancelled.
type Accrual struct {
	ID                 uuid.UUID       `json:"id"`
	LoanNoteID         uuid.UUID       `json:"loan_note_id"`
	Sequence           int             `json:"sequence"`
	AccrualDate        time.Time       `json:"accrual_date"`
	FromDate           time.Time       `json:"from_date"`
	ToDate             time.Time       `json:"to_date"`
	Days               int64           `json:"days"`
	InterestAmount     decimal.Decimal `json:"interest_amount"`
	Currency           string          `json:"currency"`
	ExchangeRate       decimal.Decimal `json:"exchange_rate"`
	InterestAmountBase decimal.Decimal `json:"interest_amount_base"`
	PostingID          *uuid.UUID      `json:"posting_id,omitempty"`
	CumulativeInterest decimal.Decimal `json:"cumulative_interest"`
	Remarks            string          `json:"remarks,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}
