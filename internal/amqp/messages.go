package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangeMessage signals that the ledger reached a new revision. It is
// intentionally tiny: the worker reloads the full snapshot from storage, so
// a lost or reordered message costs nothing but a redundant mirror.
type LedgerChangeMessage struct {
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage creates a change message for the given revision.
func NewLedgerChangeMessage(revision uint64) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON creates a message from JSON bytes
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
