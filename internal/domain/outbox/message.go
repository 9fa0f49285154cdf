package outbox

import (
	"encoding/json"
	"time"

	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message stores a general ledger change for reliable publishing
type Message struct {
	ID            int64               `json:"id"`
	PostingID     uuid.UUID           `json:"posting_id"`
	SourceID      uuid.UUID           `json:"source_id"`
	Event         shared.OutboxEvent  `json:"event"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event shared.OutboxEvent, posting *ledger.Posting) (*Message, error) {
	payload, err := json.Marshal(posting)
	if err != nil {
		return nil, err
	}

	return &Message{
		PostingID: posting.ID,
		SourceID:  posting.SourceID,
		Event:     event,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetPosting extracts the posting from the payload
func (m *Message) GetPosting() (*ledger.Posting, error) {
	var posting ledger.Posting
	if err := json.Unmarshal(m.Payload, &posting); err != nil {
		return nil, err
	}
	return &posting, nil
}
