package realtime

import (
	"encoding/json"
	"time"
)

// Message types for WebSocket communication
const (
	MessageTypeSystem = "system"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"

	// Feed messages
	MessageTypeFeedRefresh   = "feed_refresh"   // debounced pipeline re-run completed
	MessageTypeFeedRemainder = "feed_remainder" // background batch of a progressive load
	MessageTypeRecordChange  = "record_change"  // raw change event for detail views

	// Social messages
	MessageTypeNewFollower = "new_follower"
	MessageTypePostLiked   = "post_liked"
	MessageTypeNewComment  = "new_comment"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	ID        string      `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) *Message {
	return NewMessage(MessageTypeError, ErrorPayload{Code: code, Message: message})
}

// ErrorPayload represents an error message payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParsePayload unmarshals the payload into a specific type
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return nil
	}
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
