package http

import (
	"github.com/pairchat/pairchat-server/internal/core"
	"github.com/pairchat/pairchat-server/internal/proto"
)

// frameFromEvent converts a session event into the wire frame the client
// expects. Returns nil for event kinds that have no wire representation.
func frameFromEvent(ev *core.Event) any {
	switch ev.Kind {
	case core.EventConnected:
		return proto.StatusFrame{
			Type:     proto.FrameStatus,
			Status:   ev.Status,
			Message:  ev.Message,
			User:     ev.User,
			ImageURL: ev.ImageURL,
		}
	case core.EventUserStatus:
		return proto.StatusFrame{
			Type:     proto.FrameStatus,
			Status:   ev.Status,
			User:     ev.User,
			ImageURL: ev.ImageURL,
		}
	case core.EventChatMessage:
		return proto.ChatMessageFrame{
			Type:      proto.FrameChatMessage,
			Message:   ev.Message,
			User:      ev.User,
			Timestamp: proto.Timestamp(ev.Timestamp),
			ImageURL:  ev.ImageURL,
		}
	case core.EventHistory:
		messages := make([]proto.HistoryMessage, 0, len(ev.History))
		for _, entry := range ev.History {
			messages = append(messages, proto.HistoryMessage{
				SenderUsername:   entry.SenderUsername,
				ReceiverUsername: entry.ReceiverUsername,
				Content:          entry.Content,
				Timestamp:        proto.Timestamp(entry.Timestamp),
				ImageURL:         entry.ImageURL,
			})
		}
		return proto.PreviousMessagesFrame{
			Type:     proto.FramePreviousMessages,
			Messages: messages,
		}
	case core.EventError:
		return proto.ErrorFrame{
			Error: ev.ErrorMsg,
			Code:  ev.Code,
		}
	}
	return nil
}
