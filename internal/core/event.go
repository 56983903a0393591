package core

import "time"

// EventKind is a notification delivered to a session's client.
type EventKind int

const (
	// EventConnected acknowledges a successful connect to the session's own client.
	EventConnected EventKind = iota
	// EventUserStatus notifies group members that a user joined or left.
	EventUserStatus
	// EventChatMessage notifies group members about a persisted chat message.
	EventChatMessage
	// EventHistory replays previous messages to the session's own client.
	EventHistory
	// EventError reports a non-fatal protocol error to the session's own client.
	EventError
)

// Status values carried by EventConnected and EventUserStatus.
const (
	StatusConnected = "connected"
	StatusJoined    = "joined"
	StatusLeft      = "left"
)

// Event is the closed set of outbound notifications. Group publishes and
// session-local sends both flow through it; the transport maps each kind to
// exactly one wire frame.
type Event struct {
	Kind      EventKind
	Status    string
	User      string
	ImageURL  string
	Message   string
	Timestamp time.Time
	History   []HistoryEntry
	ErrorMsg  string
	Code      int
}

// HistoryEntry is one replayed message, annotated with the sender's avatar.
type HistoryEntry struct {
	SenderUsername   string
	ReceiverUsername string
	Content          string
	Timestamp        time.Time
	ImageURL         string
}
