package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// DocumentEvent announces that a stored document changed. It carries only
// the identity of the document; consumers read the current body from the
// store themselves.
type DocumentEvent struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Op         Operation `json:"op"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewDocumentEvent(collection, id string, op Operation) *DocumentEvent {
	return &DocumentEvent{
		ID:         id,
		Collection: collection,
		Op:         op,
		Timestamp:  time.Now(),
	}
}

func (m *DocumentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DocumentEventFromJSON(data []byte) (*DocumentEvent, error) {
	var msg DocumentEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.Collection == "" {
		return nil, fmt.Errorf("document event missing id or collection")
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown document operation %q", msg.Op)
	}
	return &msg, nil
}
