package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tracker/internal/core"
)

// Actions carried by a ChangeMessage.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeMessage announces one committed write to the record store. It carries
// only identifiers; consumers re-read the store for the data.
type ChangeMessage struct {
	Kind       string    `json:"kind"` // event, transaction or series
	Action     string    `json:"action"`
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeMessage builds a message for a write to collection.
func NewChangeMessage(collection, action, id string) *ChangeMessage {
	return &ChangeMessage{
		Kind:       KindOf(collection),
		Action:     action,
		Collection: collection,
		ID:         id,
		Timestamp:  time.Now().UTC(),
	}
}

// KindOf names the record family of a collection.
func KindOf(collection string) string {
	switch {
	case core.IsEventCollection(collection):
		return "event"
	case collection == core.CollectionTransactions:
		return "transaction"
	case collection == core.CollectionSeries:
		return "series"
	}
	return "unknown"
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if msg.Collection == "" || msg.ID == "" {
		return nil, fmt.Errorf("change message without collection or id")
	}
	return &msg, nil
}
