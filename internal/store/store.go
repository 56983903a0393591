package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile holds per-user presentation data. Picture is a relative media path;
// callers make it absolute with the configured base URL.
type Profile struct {
	UserID   int64
	Location string
	Picture  string
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friend represents a friend edge or a pending request (user_id sent it).
type Friend struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    FriendStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message represents a persisted direct message. The receiver is stored as a
// denormalized username string; SenderUsername is resolved on read.
type Message struct {
	ID               int64
	SenderID         int64
	SenderUsername   string
	ReceiverUsername string
	Content          string
	CreatedAt        time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a user with an empty profile attached.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers lists all users except the given one.
	ListUsers(ctx context.Context, excludeID int64) ([]*User, error)
}

// ProfileStore handles profile persistence.
type ProfileStore interface {
	// GetProfile retrieves the profile for a user.
	GetProfile(ctx context.Context, userID int64) (*Profile, error)

	// UpdateProfile overwrites the profile's mutable fields.
	UpdateProfile(ctx context.Context, profile *Profile) error
}

// MessageStore handles the direct-message log.
type MessageStore interface {
	// SaveMessage persists a message and fills in its assigned ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListConversation returns messages between the two usernames in either
	// direction, oldest first, capped at limit. Empty result, never an error,
	// when no messages exist.
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]*Message, error)
}

// FriendStore handles the friends graph.
type FriendStore interface {
	// CreateFriendRequest creates a pending request from one user to another.
	CreateFriendRequest(ctx context.Context, fromID, toID int64) (*Friend, error)

	// GetFriendRequestByID retrieves a relationship record by its ID.
	GetFriendRequestByID(ctx context.Context, id int64) (*Friend, error)

	// GetFriendship retrieves the relationship between two users in either direction.
	GetFriendship(ctx context.Context, userID, friendID int64) (*Friend, error)

	// UpdateFriendStatus updates the status of a relationship.
	UpdateFriendStatus(ctx context.Context, userID, friendID int64, status FriendStatus) error

	// DeleteFriendship removes a relationship record.
	DeleteFriendship(ctx context.Context, userID, friendID int64) error

	// ListFriends lists relationships for a user, optionally filtered by status.
	ListFriends(ctx context.Context, userID int64, status *FriendStatus) ([]*Friend, error)

	// IsFriend reports whether the users are friends (accepted, either direction).
	IsFriend(ctx context.Context, userID, friendID int64) (bool, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ProfileStore
	MessageStore
	FriendStore

	// Close closes the underlying database connection.
	Close() error
}
