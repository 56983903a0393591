// Package chat wires storage-backed collaborators into the session core.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/auth"
	"github.com/pairchat/pairchat-server/internal/core"
	"github.com/pairchat/pairchat-server/internal/presence"
	"github.com/pairchat/pairchat-server/internal/service/profiles"
	"github.com/pairchat/pairchat-server/internal/store"
)

// NewDeps assembles the collaborator set a session consumes.
func NewDeps(
	st store.Store,
	authService *auth.Service,
	profileService *profiles.Service,
	pres presence.Store,
	hub *core.Hub,
	logger *zerolog.Logger,
	presenceTTL time.Duration,
	historyLimit int,
) core.Deps {
	return core.Deps{
		Tokens:       authService,
		Directory:    &directory{store: st},
		Avatars:      profileService,
		Presence:     pres,
		Messages:     &messageLog{store: st},
		Hub:          hub,
		Log:          logger,
		PresenceTTL:  presenceTTL,
		HistoryLimit: historyLimit,
	}
}

// directory adapts the user store to core.Directory.
type directory struct {
	store store.UserStore
}

func (d *directory) ResolveUsername(ctx context.Context, username string) (core.Identity, error) {
	user, err := d.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Identity{}, core.ErrUnknownUser
		}
		return core.Identity{}, fmt.Errorf("resolve username: %w", err)
	}
	return core.Identity{UserID: user.ID, Username: user.Username}, nil
}

// messageLog adapts the message store to core.MessageLog.
type messageLog struct {
	store store.MessageStore
}

func (l *messageLog) Append(ctx context.Context, sender core.Identity, receiverUsername, content string) (*core.Message, error) {
	msg := &store.Message{
		SenderID:         sender.UserID,
		SenderUsername:   sender.Username,
		ReceiverUsername: receiverUsername,
		Content:          content,
		CreatedAt:        time.Now().UTC(),
	}
	if err := l.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return toCoreMessage(msg), nil
}

func (l *messageLog) History(ctx context.Context, userA, userB string, limit int) ([]*core.Message, error) {
	stored, err := l.store.ListConversation(ctx, userA, userB, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}

	messages := make([]*core.Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, toCoreMessage(m))
	}
	return messages, nil
}

func toCoreMessage(m *store.Message) *core.Message {
	return &core.Message{
		ID:               m.ID,
		SenderUsername:   m.SenderUsername,
		ReceiverUsername: m.ReceiverUsername,
		Content:          m.Content,
		CreatedAt:        m.CreatedAt,
	}
}
