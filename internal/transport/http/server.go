package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/auth"
	"github.com/pairchat/pairchat-server/internal/config"
	"github.com/pairchat/pairchat-server/internal/core"
	"github.com/pairchat/pairchat-server/internal/service/friends"
	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store"
)

// Handlers groups everything the HTTP server exposes.
type Handlers struct {
	Auth     *auth.Service
	Friends  *friends.Service
	Profiles *profiles.Service
	Store    store.Store
	ChatDeps core.Deps
}

// NewServer builds the HTTP server with all routes registered.
func NewServer(cfg *config.Config, h Handlers, logger *zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	authHandler := NewAuthHandler(h.Auth, logger)
	userHandler := NewUserHandler(h.Store, h.Profiles, logger)
	friendsHandler := NewFriendsHandler(h.Friends, logger)
	messageHandler := NewMessageHandler(h.Store, h.Profiles, cfg.HistoryLimit, logger)
	profileHandler := NewProfileHandler(h.Profiles, logger)
	wsHandler := NewWSHandler(h.ChatDeps, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.Handle)

	api := router.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(h.Auth, logger))
	authed.GET("/users", userHandler.List)
	authed.POST("/add-friend", friendsHandler.AddFriend)
	authed.GET("/friend-requests", friendsHandler.ListRequests)
	authed.POST("/friend-request/action", friendsHandler.HandleRequestAction)
	authed.GET("/friends", friendsHandler.ListFriends)
	authed.GET("/messages/:friend_username", messageHandler.History)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile/update", profileHandler.Update)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
