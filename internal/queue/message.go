package queue

import (
	"encoding/json"
	"fmt"
)

// Message kinds.
const (
	KindIngest = "ingest"
	KindMatch  = "match"
)

// MessageVersion is the payload version produced by this build.
const MessageVersion = 1

// Message is a unit of background work.
type Message struct {
	Kind          string `json:"kind"`
	FileID        string `json:"fileId"`
	ProjectID     string `json:"projectId,omitempty"`
	FilterGroupID string `json:"filterGroupId,omitempty"`
	PositionID    string `json:"positionId,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

// Validate checks the fields required by the message kind.
func (m Message) Validate() error {
	switch m.Kind {
	case KindIngest:
		if m.FileID == "" {
			return fmt.Errorf("ingest message: missing file id")
		}
	case KindMatch:
		if m.FileID == "" || m.ProjectID == "" {
			return fmt.Errorf("match message: missing file or project id")
		}
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message. Version 0 payloads
// predate the kind field and are treated as ingest requests.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Kind == "" && msg.Version == 0 {
		msg.Kind = KindIngest
	}
	return msg, nil
}
