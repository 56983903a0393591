// Package presence tracks which users are currently online. A user is online
// iff a non-expired record exists for them; whoever changes connection state
// is responsible for writing or clearing the record.
package presence

import (
	"context"
	"time"
)

// Store is the key-expiry backed online registry.
type Store interface {
	// MarkOnline sets or refreshes the expiring record for a user.
	MarkOnline(ctx context.Context, username string, ttl time.Duration) error

	// MarkOffline removes the record. No error if absent.
	MarkOffline(ctx context.Context, username string) error

	// IsOnline reports whether a non-expired record exists.
	IsOnline(ctx context.Context, username string) (bool, error)
}

func key(username string) string {
	return "user:" + username + ":active"
}
