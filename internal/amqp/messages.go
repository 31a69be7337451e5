package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// TransactionEvent announces a lifecycle change. It carries ids only;
// consumers load current rows from storage.
type TransactionEvent struct {
	Type      EventType `json:"type"`
	UserID    int64     `json:"userId"`
	IDs       []int64   `json:"ids"`
	GroupID   string    `json:"groupId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(typ EventType, userID int64, ids []int64, groupID string) *TransactionEvent {
	return &TransactionEvent{
		Type:      typ,
		UserID:    userID,
		IDs:       ids,
		GroupID:   groupID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionEvent) Validate() error {
	switch m.Type {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if len(m.IDs) == 0 {
		return errors.New("event without transaction ids")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
