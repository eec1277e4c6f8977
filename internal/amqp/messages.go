package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"fintrack/internal/core"
)

// Event names carried in TransactionEvent.Event.
const (
	EventCreated      = "transaction.created"
	EventMaterialized = "transaction.materialized"
)

var ErrInvalidEvent = errors.New("invalid transaction event")

// TransactionEvent is a lightweight notification that a transaction row was
// written. Consumers fetch the full row from the database by ID.
type TransactionEvent struct {
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	SeriesID  string    `json:"series_id,omitempty"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for a stored transaction.
func NewTransactionEvent(event string, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Event:     event,
		ID:        t.ID,
		SeriesID:  t.SeriesID,
		UserID:    t.UserID,
		Date:      t.Date.String(),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes a message body. Bodies without an event
// name or a positive ID are rejected.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event == "" || msg.ID <= 0 {
		return nil, ErrInvalidEvent
	}
	return &msg, nil
}
