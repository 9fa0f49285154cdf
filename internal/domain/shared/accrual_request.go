package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccrualRequest defines a Kafka message asking for interest to be accrued on a loan note
type AccrualRequest struct {
	RequestID     uuid.UUID        `json:"request_id"`
	LoanNoteID    uuid.UUID        `json:"loan_note_id"`
	AsOfDate      time.Time        `json:"as_of_date"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate,omitempty"`
	CorrelationID string           `json:"correlation_id"`
	Timestamp     time.Time        `json:"timestamp"`
}
