package amqp

import (
	"encoding/json"
	"time"
)

// EventKind distinguishes transaction change events on the bus.
type EventKind string

const (
	TransactionCreated EventKind = "created"
	TransactionDeleted EventKind = "deleted"
)

// TransactionEvent notifies consumers (the budget worker) that a transaction
// changed. Deleted events may carry only the ID; consumers fall back to a
// full sweep when details are missing.
type TransactionEvent struct {
	Kind        EventKind `json:"kind"`
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Type        string    `json:"type,omitempty"`
	Month       string    `json:"month,omitempty"` // "2006-01"
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event stamped with the current time.
func NewTransactionEvent(kind EventKind, id, categoryID, amountCents int64, typ string) *TransactionEvent {
	return &TransactionEvent{
		Kind:        kind,
		ID:          id,
		CategoryID:  categoryID,
		AmountCents: amountCents,
		Type:        typ,
		Timestamp:   time.Now(),
	}
}

// ToJSON serializes the event for publishing.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON deserializes a consumed event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
