package net

import "LiveBoard/internal/state"

// Message types exchanged over the /ws endpoint.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeSubmit      = "submit"
	TypeClear       = "clear"

	TypeSnapshot = "snapshot"
	TypeAck      = "ack"
	TypeError    = "error"
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type      string              `json:"type"`
	RequestID string              `json:"requestId,omitempty"`
	BoardID   string              `json:"boardId,omitempty"`
	Chunk     *state.StrokeChunk  `json:"chunk,omitempty"`
	Strokes   []state.StrokeChunk `json:"strokes,omitempty"`
	Error     string              `json:"error,omitempty"`
}
