package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/service/friends"
)

type AddFriendRequest struct {
	FriendUsername string `json:"friend_username" binding:"required"`
}

type FriendRequestActionRequest struct {
	RequestID int64  `json:"request_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// FriendsHandler serves the friend-request workflow and the friends list.
type FriendsHandler struct {
	friends *friends.Service
	logger  *zerolog.Logger
}

func NewFriendsHandler(friendService *friends.Service, logger *zerolog.Logger) *FriendsHandler {
	return &FriendsHandler{friends: friendService, logger: logger}
}

func (h *FriendsHandler) AddFriend(c *gin.Context) {
	userID, _, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	var req AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "friend_username is required"})
		return
	}

	_, err := h.friends.SendRequest(c.Request.Context(), userID, req.FriendUsername)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, friends.ErrCannotFriendSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, friends.ErrAlreadyFriends),
			errors.Is(err, friends.ErrRequestAlreadyExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			h.logger.Error().Err(err).Msg("send friend request failed")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "friend request sent"})
}

func (h *FriendsHandler) ListRequests(c *gin.Context) {
	userID, _, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	requests, err := h.friends.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list friend requests failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (h *FriendsHandler) HandleRequestAction(c *gin.Context) {
	userID, _, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	var req FriendRequestActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request_id and action are required"})
		return
	}

	var err error
	switch req.Action {
	case "accept":
		err = h.friends.AcceptRequest(c.Request.Context(), userID, req.RequestID)
	case "reject":
		err = h.friends.RejectRequest(c.Request.Context(), userID, req.RequestID)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "action must be accept or reject"})
		return
	}

	if err != nil {
		if errors.Is(err, friends.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friend request not found"})
			return
		}
		h.logger.Error().Err(err).Msg("friend request action failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request " + req.Action + "ed"})
}

func (h *FriendsHandler) ListFriends(c *gin.Context) {
	userID, _, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	list, err := h.friends.ListFriends(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list friends failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": list})
}
