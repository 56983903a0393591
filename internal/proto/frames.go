// Package proto defines the wire-level frames exchanged with chat clients.
package proto

import "time"

// Frame type tags for outbound frames.
const (
	FrameStatus           = "status"
	FramePreviousMessages = "previous_messages"
	FrameChatMessage      = "chat_message"
)

// Inbound is the structured payload clients send after connecting.
type Inbound struct {
	Message          string `json:"message"`
	ReceiverUsername string `json:"receiver_username"`
}

// StatusFrame reports connection and presence status changes.
// Status is one of "connected", "joined", "left".
type StatusFrame struct {
	Type     string `json:"type"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	User     string `json:"user"`
	ImageURL string `json:"image_url"`
}

// HistoryMessage is one entry of a previous_messages replay.
type HistoryMessage struct {
	SenderUsername   string `json:"sender_username"`
	ReceiverUsername string `json:"receiver_username"`
	Content          string `json:"content"`
	Timestamp        string `json:"timestamp"`
	ImageURL         string `json:"image_url"`
}

// PreviousMessagesFrame replays conversation history. Messages is always
// present, possibly empty.
type PreviousMessagesFrame struct {
	Type     string           `json:"type"`
	Messages []HistoryMessage `json:"messages"`
}

// ChatMessageFrame carries one fanned-out chat message.
type ChatMessageFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
	ImageURL  string `json:"image_url"`
}

// ErrorFrame reports a protocol error while the connection stays open, and is
// also the last frame sent before a rejecting close.
type ErrorFrame struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Timestamp renders t as ISO-8601 UTC with a trailing "Z".
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
