package amqp

import (
	"encoding/json"
	"time"
)

// SheetsSyncMessage asks the worker to push the record collection to the
// connected spreadsheet. It carries no record data; the worker reads the
// current collection when it handles the message.
type SheetsSyncMessage struct {
	Reason    string    `json:"reason"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSheetsSyncMessage creates a sync request for the given store revision.
func NewSheetsSyncMessage(reason string, revision uint64) *SheetsSyncMessage {
	return &SheetsSyncMessage{
		Reason:    reason,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SheetsSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SheetsSyncMessageFromJSON creates a message from JSON bytes
func SheetsSyncMessageFromJSON(data []byte) (*SheetsSyncMessage, error) {
	var msg SheetsSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
