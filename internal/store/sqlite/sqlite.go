package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pairchat/pairchat-server/internal/store"
)

// schema is applied on open. CREATE IF NOT EXISTS keeps reopening cheap.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id  INTEGER PRIMARY KEY,
	location TEXT NOT NULL DEFAULT '',
	picture  TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS friends (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	friend_id  INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, friend_id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (friend_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id         INTEGER NOT NULL,
	receiver_username TEXT NOT NULL,
	content           TEXT NOT NULL,
	created_at        DATETIME NOT NULL,
	FOREIGN KEY (sender_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, receiver_username, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_username, created_at);
CREATE INDEX IF NOT EXISTS idx_friends_friend ON friends(friend_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup opens the database and runs a setup function instead of, or in
// addition to, the default schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a user and an empty profile row for it.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (user_id) VALUES (?)`, id); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.getUser(ctx, `WHERE username = ?`, username)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
	` + where

	var user store.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ListUsers lists all users except the given one, ordered by username.
func (s *SQLiteStore) ListUsers(ctx context.Context, excludeID int64) ([]*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id != ?
		ORDER BY username
	`
	rows, err := s.db.QueryContext(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*store.User, 0)
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// ==== ProfileStore implementation ====

// GetProfile retrieves the profile for a user.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID int64) (*store.Profile, error) {
	var profile store.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, location, picture FROM profiles WHERE user_id = ?`, userID,
	).Scan(&profile.UserID, &profile.Location, &profile.Picture)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile overwrites the profile's mutable fields.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, profile *store.Profile) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET location = ?, picture = ? WHERE user_id = ?`,
		profile.Location, profile.Picture, profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile: %w", store.ErrNotFound)
	}
	return nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and fills in its assigned ID.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (sender_id, receiver_username, content, created_at) VALUES (?, ?, ?, ?)`,
		msg.SenderID, msg.ReceiverUsername, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// ListConversation returns messages between the two usernames in either
// direction, oldest first, capped at limit.
func (s *SQLiteStore) ListConversation(ctx context.Context, userA, userB string, limit int) ([]*store.Message, error) {
	query := `
		SELECT m.id, m.sender_id, u.username, m.receiver_username, m.content, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE (u.username = ? AND m.receiver_username = ?)
		   OR (u.username = ? AND m.receiver_username = ?)
		ORDER BY m.created_at, m.id
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, userA, userB, userB, userA, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.SenderUsername, &msg.ReceiverUsername, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// ==== FriendStore implementation ====

// CreateFriendRequest creates a pending request from one user to another.
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, fromID, toID int64) (*store.Friend, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO friends (user_id, friend_id, status) VALUES (?, ?, ?)`,
		fromID, toID, store.FriendStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetFriendRequestByID(ctx, id)
}

// GetFriendRequestByID retrieves a relationship record by its ID.
func (s *SQLiteStore) GetFriendRequestByID(ctx context.Context, id int64) (*store.Friend, error) {
	var f store.Friend
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, friend_id, status, created_at, updated_at FROM friends WHERE id = ?`, id,
	).Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friendship: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query friendship: %w", err)
	}
	return &f, nil
}

// GetFriendship retrieves the relationship between two users in either direction.
func (s *SQLiteStore) GetFriendship(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	var f store.Friend
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`, userID, friendID, friendID, userID).Scan(
		&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friendship: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query friendship: %w", err)
	}
	return &f, nil
}

// UpdateFriendStatus updates the status of a relationship.
func (s *SQLiteStore) UpdateFriendStatus(ctx context.Context, userID, friendID int64, status store.FriendStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE friends
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND friend_id = ?
	`, status, userID, friendID)
	if err != nil {
		return fmt.Errorf("update friend status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("friendship: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteFriendship removes a relationship record.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, userID, friendID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM friends WHERE user_id = ? AND friend_id = ?`, userID, friendID,
	)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

// ListFriends lists relationships involving a user, optionally filtered by status.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID int64, status *store.FriendStatus) ([]*store.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friends
		WHERE (user_id = ? OR friend_id = ?)
	`
	args := []any{userID, userID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	friends := make([]*store.Friend, 0)
	for rows.Next() {
		var f store.Friend
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, &f)
	}
	return friends, rows.Err()
}

// IsFriend reports whether the users are friends (accepted, either direction).
func (s *SQLiteStore) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM friends
		WHERE status = ?
		  AND ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))
	`, store.FriendStatusAccepted, userID, friendID, friendID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query is friend: %w", err)
	}
	return count > 0, nil
}
