package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/proto"
	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store"
)

// MessageHandler serves conversation history over REST.
type MessageHandler struct {
	store        store.MessageStore
	profiles     *profiles.Service
	historyLimit int
	logger       *zerolog.Logger
}

func NewMessageHandler(messageStore store.MessageStore, profileService *profiles.Service, historyLimit int, logger *zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		store:        messageStore,
		profiles:     profileService,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// History returns the conversation between the caller and the named friend,
// oldest first, in the same shape the websocket replays it.
func (h *MessageHandler) History(c *gin.Context) {
	_, username, ok := currentUser(c, h.logger)
	if !ok {
		return
	}

	friendUsername := c.Param("friend_username")
	if friendUsername == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "friend_username is required"})
		return
	}

	msgs, err := h.store.ListConversation(c.Request.Context(), username, friendUsername, h.historyLimit)
	if err != nil {
		h.logger.Error().Err(err).Msg("list conversation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	avatars := make(map[string]string)
	out := make([]proto.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		picture, cached := avatars[m.SenderUsername]
		if !cached {
			picture, err = h.profiles.AvatarURL(c.Request.Context(), m.SenderUsername)
			if err != nil {
				picture = ""
			}
			avatars[m.SenderUsername] = picture
		}
		out = append(out, proto.HistoryMessage{
			SenderUsername:   m.SenderUsername,
			ReceiverUsername: m.ReceiverUsername,
			Content:          m.Content,
			Timestamp:        proto.Timestamp(m.CreatedAt),
			ImageURL:         picture,
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": out})
}
