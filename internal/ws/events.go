package ws

import "encoding/json"

// Frame is the JSON shape written to a connection
type Frame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorPayload is the payload of an error frame
type ErrorPayload struct {
	Message string `json:"message"`
}

// Error notices sent to a single connection
const (
	ErrMsgRateLimited    = "Rate limit exceeded. Please slow down."
	ErrMsgInvalidMessage = "Invalid message format"
	ErrMsgUnknownType    = "Unknown message type"
)

func encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}
