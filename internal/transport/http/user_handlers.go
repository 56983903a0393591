package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store"
)

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Picture  string `json:"picture,omitempty"`
}

// UserHandler serves the user directory.
type UserHandler struct {
	store    store.UserStore
	profiles *profiles.Service
	logger   *zerolog.Logger
}

func NewUserHandler(userStore store.UserStore, profileService *profiles.Service, logger *zerolog.Logger) *UserHandler {
	return &UserHandler{store: userStore, profiles: profileService, logger: logger}
}

// List returns every registered user except the caller.
func (h *UserHandler) List(c *gin.Context) {
	userID, _, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	users, err := h.store.ListUsers(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list users failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		picture, err := h.profiles.AvatarURL(c.Request.Context(), u.Username)
		if err != nil {
			picture = ""
		}
		out = append(out, UserResponse{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Picture:  picture,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": out})
}
