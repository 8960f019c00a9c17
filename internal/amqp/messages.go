package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ChangeMessage announces that one ledger key was rewritten. It carries no
// payload; consumers read the current state from the shared store.
type ChangeMessage struct {
	Key       string    `json:"key"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrMissingKey = errors.New("change message without key")

func NewChangeMessage(key string, revision uint64) *ChangeMessage {
	return &ChangeMessage{
		Key:       key,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message; a missing key is an error.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Key == "" {
		return nil, ErrMissingKey
	}
	return &msg, nil
}
