// Package app wires configuration, storage, presence and transport together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/auth"
	"github.com/pairchat/pairchat-server/internal/config"
	"github.com/pairchat/pairchat-server/internal/core"
	"github.com/pairchat/pairchat-server/internal/presence"
	"github.com/pairchat/pairchat-server/internal/service/chat"
	"github.com/pairchat/pairchat-server/internal/service/friends"
	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store/sqlite"
	transport "github.com/pairchat/pairchat-server/internal/transport/http"
)

const tokenTTL = 24 * time.Hour

// App owns the assembled server and its resources.
type App struct {
	cfg    config.Config
	logger *zerolog.Logger

	server  *http.Server
	cleanup []func() error
}

// New builds the application from config.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.cleanup = append(a.cleanup, st.Close)

	var pres presence.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.cleanup = append(a.cleanup, client.Close)
		pres = presence.NewRedis(client)
	} else {
		logger.Warn().Msg("redis_addr not set, using in-memory presence")
		pres = presence.NewMemory()
	}

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      tokenTTL,
	})
	profileService := profiles.New(st, cfg.BaseURL)
	friendService := friends.New(st, pres, profileService)

	hub := core.NewHub()
	deps := chat.NewDeps(st, authService, profileService, pres, hub, logger, cfg.PresenceTTL, cfg.HistoryLimit)

	a.server = transport.NewServer(&a.cfg, transport.Handlers{
		Auth:     authService,
		Friends:  friendService,
		Profiles: profileService,
		Store:    st,
		ChatDeps: deps,
	}, logger)

	return a, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.Addr).Msg("server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			a.logger.Error().Err(err).Msg("cleanup failed")
		}
	}
}
