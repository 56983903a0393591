package presence

import (
	"context"
	"testing"
	"time"
)

func TestMemoryMarkOnline(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	online, err := m.IsOnline(ctx, "alice")
	if err != nil {
		t.Fatalf("IsOnline: %v", err)
	}
	if online {
		t.Fatal("alice should start offline")
	}

	if err := m.MarkOnline(ctx, "alice", time.Minute); err != nil {
		t.Fatalf("MarkOnline: %v", err)
	}
	online, _ = m.IsOnline(ctx, "alice")
	if !online {
		t.Fatal("alice should be online")
	}

	if err := m.MarkOffline(ctx, "alice"); err != nil {
		t.Fatalf("MarkOffline: %v", err)
	}
	online, _ = m.IsOnline(ctx, "alice")
	if online {
		t.Fatal("alice should be offline after MarkOffline")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	if err := m.MarkOnline(ctx, "alice", time.Minute); err != nil {
		t.Fatalf("MarkOnline: %v", err)
	}

	clock = clock.Add(59 * time.Second)
	if online, _ := m.IsOnline(ctx, "alice"); !online {
		t.Fatal("record should still be live before the TTL")
	}

	clock = clock.Add(2 * time.Second)
	if online, _ := m.IsOnline(ctx, "alice"); online {
		t.Fatal("record should expire after the TTL")
	}
}

func TestMemoryRefreshExtendsTTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.MarkOnline(ctx, "alice", time.Minute)
	clock = clock.Add(45 * time.Second)
	m.MarkOnline(ctx, "alice", time.Minute)

	clock = clock.Add(45 * time.Second)
	if online, _ := m.IsOnline(ctx, "alice"); !online {
		t.Fatal("refresh should extend the deadline")
	}
}

func TestMemoryMarkOfflineAbsent(t *testing.T) {
	m := NewMemory()
	if err := m.MarkOffline(context.Background(), "nobody"); err != nil {
		t.Fatalf("MarkOffline absent user: %v", err)
	}
}

func TestKeyFormat(t *testing.T) {
	if got := key("alice"); got != "user:alice:active" {
		t.Fatalf("key = %q, want user:alice:active", got)
	}
}
