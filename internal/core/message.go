package core

import "time"

// Message is the domain model for a persisted direct message.
// The receiver is a denormalized username string, not a user reference.
type Message struct {
	ID               int64
	SenderUsername   string
	ReceiverUsername string
	Content          string
	CreatedAt        time.Time
}

// Identity is a resolved, authenticated user.
type Identity struct {
	UserID   int64
	Username string
}
