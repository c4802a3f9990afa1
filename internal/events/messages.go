package events

import (
	"encoding/json"
	"time"

	"tally/internal/core"
)

// Routing keys for transaction lifecycle events.
const (
	KeyTransactionCreated = "transaction.created"
	KeyTransactionUpdated = "transaction.updated"
	KeyTransactionDeleted = "transaction.deleted"
)

// TransactionEvent is the message published on every successful mutation.
// It carries enough to drive notifications or downstream sync without a
// round-trip: consumers needing the full record fetch it by ID.
type TransactionEvent struct {
	ID        string               `json:"id"`
	Type      core.TransactionType `json:"type,omitempty"`
	Amount    float64              `json:"amount,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
