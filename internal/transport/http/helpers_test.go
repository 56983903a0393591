package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pairchat/pairchat-server/internal/auth"
	"github.com/pairchat/pairchat-server/internal/config"
	"github.com/pairchat/pairchat-server/internal/core"
	"github.com/pairchat/pairchat-server/internal/log"
	"github.com/pairchat/pairchat-server/internal/presence"
	"github.com/pairchat/pairchat-server/internal/service/chat"
	"github.com/pairchat/pairchat-server/internal/service/friends"
	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store/sqlite"
)

type testEnv struct {
	server   *httptest.Server
	store    *sqlite.SQLiteStore
	auth     *auth.Service
	presence *presence.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	logger := log.Nop()
	pres := presence.NewMemory()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	})
	profileService := profiles.New(st, cfg.BaseURL)
	friendService := friends.New(st, pres, profileService)

	hub := core.NewHub()
	deps := chat.NewDeps(st, authService, profileService, pres, hub, logger, cfg.PresenceTTL, cfg.HistoryLimit)

	srv := NewServer(&cfg, Handlers{
		Auth:     authService,
		Friends:  friendService,
		Profiles: profileService,
		Store:    st,
		ChatDeps: deps,
	}, logger)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		server:   ts,
		store:    st,
		auth:     authService,
		presence: pres,
	}
}

// registerUser creates an account and returns its bearer token.
func (e *testEnv) registerUser(t *testing.T, username string) string {
	t.Helper()
	result, err := e.auth.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return result.Token
}
