package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on a shared go-redis client. The client is
// constructed once at process start and passed in; it is safe for
// concurrent use by all sessions.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed presence store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// MarkOnline sets or refreshes the expiring record for a user.
func (r *Redis) MarkOnline(ctx context.Context, username string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key(username), "1", ttl).Err(); err != nil {
		return fmt.Errorf("presence set: %w", err)
	}
	return nil
}

// MarkOffline removes the record. No error if absent.
func (r *Redis) MarkOffline(ctx context.Context, username string) error {
	if err := r.client.Del(ctx, key(username)).Err(); err != nil {
		return fmt.Errorf("presence del: %w", err)
	}
	return nil
}

// IsOnline reports whether a non-expired record exists.
func (r *Redis) IsOnline(ctx context.Context, username string) (bool, error) {
	n, err := r.client.Exists(ctx, key(username)).Result()
	if err != nil {
		return false, fmt.Errorf("presence exists: %w", err)
	}
	return n > 0, nil
}
