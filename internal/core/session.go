package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/telemetry"
)

// State is the session lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateJoined
	StateRejected
	StateClosed
)

// Collaborators the session consumes. The transport and app layers supply
// implementations; the core never depends on their packages.
type (
	// TokenResolver authenticates an opaque bearer token.
	// Returns ErrInvalidToken when the token does not resolve to a user.
	TokenResolver interface {
		ResolveToken(ctx context.Context, token string) (Identity, error)
	}

	// Directory resolves usernames to identities.
	// Returns ErrUnknownUser when no such user exists.
	Directory interface {
		ResolveUsername(ctx context.Context, username string) (Identity, error)
	}

	// AvatarResolver returns an absolute avatar URL, or "" when absent.
	AvatarResolver interface {
		AvatarURL(ctx context.Context, username string) (string, error)
	}

	// Presence marks users online with an expiring record.
	Presence interface {
		MarkOnline(ctx context.Context, username string, ttl time.Duration) error
		MarkOffline(ctx context.Context, username string) error
	}

	// MessageLog persists direct messages and reads pair history.
	MessageLog interface {
		Append(ctx context.Context, sender Identity, receiverUsername, content string) (*Message, error)
		History(ctx context.Context, userA, userB string, limit int) ([]*Message, error)
	}
)

// Deps bundles everything a session needs. Zero TTL and limit fall back to
// the defaults below.
type Deps struct {
	Tokens    TokenResolver
	Directory Directory
	Avatars   AvatarResolver
	Presence  Presence
	Messages  MessageLog
	Hub       *Hub
	Log       *zerolog.Logger

	PresenceTTL  time.Duration
	HistoryLimit int
}

const (
	defaultPresenceTTL  = 60 * time.Second
	defaultHistoryLimit = 50
	eventQueueSize      = 16
)

// inboundPayload is the only structured payload clients send after connect.
type inboundPayload struct {
	Message          string `json:"message"`
	ReceiverUsername string `json:"receiver_username"`
}

// Session is the server-side state machine bound to one live connection.
// Connect, Receive, and Disconnect are called strictly sequentially by the
// owning connection goroutine; only deliver is invoked concurrently (by
// group publishers) and it touches nothing but the event queue.
type Session struct {
	id   string
	deps Deps

	state       State
	identity    Identity
	peer        string
	group       *Group
	historySent bool

	events chan *Event
}

// NewSession constructs a session in the Connecting state.
func NewSession(id string, deps Deps) *Session {
	if deps.PresenceTTL <= 0 {
		deps.PresenceTTL = defaultPresenceTTL
	}
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = defaultHistoryLimit
	}
	return &Session{
		id:     id,
		deps:   deps,
		state:  StateConnecting,
		events: make(chan *Event, eventQueueSize),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Identity returns the authenticated identity. Zero before Joined.
func (s *Session) Identity() Identity { return s.identity }

// Events is the outbound queue the transport drains to the client.
// Closed when the session disconnects.
func (s *Session) Events() <-chan *Event { return s.events }

// Connect authenticates the token, registers presence, joins the broadcast
// group, publishes a joined status, and queues the connected acknowledgement
// plus an optional history replay for the peer hint. The whole sequence is
// one logical unit: any failure leaves no presence record and no group
// membership behind, and the returned *RejectError carries the close code.
func (s *Session) Connect(ctx context.Context, token, friendUsername string) error {
	if token == "" {
		s.state = StateRejected
		return reject(CloseAuthRequired, "authentication failed: no token provided")
	}

	s.state = StateAuthenticating
	identity, err := s.deps.Tokens.ResolveToken(ctx, token)
	if err != nil {
		s.state = StateRejected
		if errors.Is(err, ErrInvalidToken) {
			s.deps.Log.Warn().Str("session_id", s.id).Msg("rejected invalid token")
			return reject(CloseAuthInvalid, "authentication failed: invalid or expired token")
		}
		s.deps.Log.Error().Err(err).Str("session_id", s.id).Msg("token resolution failed")
		return reject(CloseInternalError, "connection error")
	}

	if err := s.deps.Presence.MarkOnline(ctx, identity.Username, s.deps.PresenceTTL); err != nil {
		s.state = StateRejected
		// Best effort: the record may or may not have been written.
		_ = s.deps.Presence.MarkOffline(ctx, identity.Username)
		s.deps.Log.Error().Err(err).Str("user", identity.Username).Msg("presence registration failed")
		return reject(CloseInternalError, "connection error")
	}

	s.identity = identity
	s.peer = friendUsername
	s.group = s.deps.Hub.Group(DefaultGroup)
	s.group.Join(s)
	s.state = StateJoined
	telemetry.SessionsConnected.Inc()

	avatar := s.avatar(ctx, identity.Username)
	s.group.Publish(&Event{
		Kind:     EventUserStatus,
		Status:   StatusJoined,
		User:     identity.Username,
		ImageURL: avatar,
	})
	s.deliver(&Event{
		Kind:     EventConnected,
		Status:   StatusConnected,
		Message:  "WebSocket connected successfully",
		User:     identity.Username,
		ImageURL: avatar,
	})

	if friendUsername != "" {
		s.deliver(&Event{
			Kind:    EventHistory,
			History: s.loadHistory(ctx, friendUsername),
		})
	}

	s.deps.Log.Info().
		Str("session_id", s.id).
		Str("user", identity.Username).
		Str("friend", friendUsername).
		Msg("session joined")
	return nil
}

// Receive handles one inbound frame. Protocol-level failures are reported as
// error frames and never close the connection; only calling outside the
// Joined state is an error to the caller.
func (s *Session) Receive(ctx context.Context, data []byte) error {
	if s.state != StateJoined {
		return ErrNotJoined
	}

	var in inboundPayload
	if err := json.Unmarshal(data, &in); err != nil {
		s.sendError(CodeMalformedPayload, "invalid JSON format")
		return nil
	}

	if in.Message == "" || in.ReceiverUsername == "" {
		s.sendError(CodeValidation, "invalid message: message and receiver_username are required")
		return nil
	}

	// The first message establishes the implicit conversation partner.
	if s.peer == "" {
		s.peer = in.ReceiverUsername
	}

	if _, err := s.deps.Directory.ResolveUsername(ctx, in.ReceiverUsername); err != nil {
		if errors.Is(err, ErrUnknownUser) {
			s.sendError(CodeReceiverNotFound, "receiver not found: "+in.ReceiverUsername)
			return nil
		}
		s.deps.Log.Error().Err(err).Str("receiver", in.ReceiverUsername).Msg("receiver lookup failed")
		s.sendError(CodeInternal, "internal server error")
		return nil
	}

	// Activity refreshes the presence TTL.
	if err := s.deps.Presence.MarkOnline(ctx, s.identity.Username, s.deps.PresenceTTL); err != nil {
		s.deps.Log.Warn().Err(err).Str("user", s.identity.Username).Msg("presence refresh failed")
	}

	msg, err := s.deps.Messages.Append(ctx, s.identity, in.ReceiverUsername, in.Message)
	if err != nil {
		s.deps.Log.Error().Err(err).Str("user", s.identity.Username).Msg("failed to save message")
		s.sendError(CodePersistence, "failed to save message")
		return nil
	}

	s.group.Publish(&Event{
		Kind:      EventChatMessage,
		User:      s.identity.Username,
		Message:   msg.Content,
		Timestamp: msg.CreatedAt,
		ImageURL:  s.avatar(ctx, s.identity.Username),
	})
	telemetry.MessagesPersisted.Inc()

	if !s.historySent {
		s.historySent = true
		s.deliver(&Event{
			Kind:    EventHistory,
			History: s.loadHistory(ctx, in.ReceiverUsername),
		})
	}

	return nil
}

// Disconnect tears the session down. Authenticated sessions best-effort
// clear presence and publish a left status; failures there are logged and
// never block the unconditional group removal. Idempotent.
func (s *Session) Disconnect(ctx context.Context) {
	if s.state == StateClosed {
		return
	}

	if s.state == StateJoined {
		if err := s.deps.Presence.MarkOffline(ctx, s.identity.Username); err != nil {
			s.deps.Log.Error().Err(err).Str("user", s.identity.Username).Msg("presence clear failed")
		}
		s.group.Publish(&Event{
			Kind:     EventUserStatus,
			Status:   StatusLeft,
			User:     s.identity.Username,
			ImageURL: s.avatar(ctx, s.identity.Username),
		})
		telemetry.SessionsConnected.Dec()
	}

	if s.group != nil {
		s.group.Leave(s)
	}
	s.state = StateClosed
	close(s.events)

	s.deps.Log.Debug().Str("session_id", s.id).Str("user", s.identity.Username).Msg("session closed")
}

// deliver enqueues an event for this session's client without blocking.
// Reports false when the queue is full and the event was dropped.
func (s *Session) deliver(event *Event) bool {
	select {
	case s.events <- event:
		return true
	default:
		return false
	}
}

func (s *Session) sendError(code int, msg string) {
	s.deliver(&Event{Kind: EventError, Code: code, ErrorMsg: msg})
}

// avatar resolves the user's avatar URL, falling back to "" on any failure.
func (s *Session) avatar(ctx context.Context, username string) string {
	url, err := s.deps.Avatars.AvatarURL(ctx, username)
	if err != nil {
		s.deps.Log.Warn().Err(err).Str("user", username).Msg("avatar resolution failed")
		return ""
	}
	return url
}

// loadHistory reads the conversation with the given user and annotates each
// entry with the sender's avatar. Read failures replay as an empty list.
func (s *Session) loadHistory(ctx context.Context, withUsername string) []HistoryEntry {
	messages, err := s.deps.Messages.History(ctx, s.identity.Username, withUsername, s.deps.HistoryLimit)
	if err != nil {
		s.deps.Log.Error().Err(err).Str("user", s.identity.Username).Str("with", withUsername).Msg("history read failed")
		return []HistoryEntry{}
	}

	avatars := make(map[string]string, 2)
	entries := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		url, ok := avatars[m.SenderUsername]
		if !ok {
			url = s.avatar(ctx, m.SenderUsername)
			avatars[m.SenderUsername] = url
		}
		entries = append(entries, HistoryEntry{
			SenderUsername:   m.SenderUsername,
			ReceiverUsername: m.ReceiverUsername,
			Content:          m.Content,
			Timestamp:        m.CreatedAt,
			ImageURL:         url,
		})
	}
	return entries
}
