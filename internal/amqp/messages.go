package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names the ledger mutation that produced an event.
type EventKind string

const (
	EventCreated EventKind = "transaction.created"
	EventUpdated EventKind = "transaction.updated"
	EventVoided  EventKind = "transaction.voided"
)

func (k EventKind) IsValid() bool {
	switch k {
	case EventCreated, EventUpdated, EventVoided:
		return true
	}
	return false
}

// LedgerEvent is a lightweight notification that a transaction changed.
// Consumers fetch the current row from the store; the version lets them
// skip events older than what they already mirrored.
type LedgerEvent struct {
	Kind          EventKind `json:"kind"`
	TransactionID string    `json:"transactionId"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind EventKind, transactionID string, version int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:          kind,
		TransactionID: transactionID,
		Version:       version,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.TransactionID == "" {
		return nil, fmt.Errorf("event has no transaction id")
	}
	return &msg, nil
}
