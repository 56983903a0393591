package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store"
)

type UpdateProfileRequest struct {
	Location *string `json:"location"`
	Picture  *string `json:"picture"`
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles *profiles.Service
	logger   *zerolog.Logger
}

func NewProfileHandler(profileService *profiles.Service, logger *zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profileService, logger: logger}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, _, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	info, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
			return
		}
		h.logger.Error().Err(err).Msg("get profile failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, _, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Location == nil && req.Picture == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "nothing to update"})
		return
	}

	info, err := h.profiles.Update(c.Request.Context(), userID, req.Location, req.Picture)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
			return
		}
		h.logger.Error().Err(err).Msg("update profile failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, info)
}
