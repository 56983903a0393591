package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pairchat/pairchat-server/internal/log"
)

type fakeTokens struct {
	users map[string]Identity
	err   error
}

func (f *fakeTokens) ResolveToken(_ context.Context, token string) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	id, ok := f.users[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

type fakeDirectory struct {
	users map[string]Identity
	err   error
}

func (f *fakeDirectory) ResolveUsername(_ context.Context, username string) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	id, ok := f.users[username]
	if !ok {
		return Identity{}, ErrUnknownUser
	}
	return id, nil
}

type fakeAvatars struct {
	urls map[string]string
}

func (f *fakeAvatars) AvatarURL(_ context.Context, username string) (string, error) {
	return f.urls[username], nil
}

type fakePresence struct {
	online      map[string]int
	offline     map[string]int
	lastTTL     time.Duration
	failOnline  bool
	failOffline bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		online:  make(map[string]int),
		offline: make(map[string]int),
	}
}

func (f *fakePresence) MarkOnline(_ context.Context, username string, ttl time.Duration) error {
	if f.failOnline {
		return errors.New("presence unavailable")
	}
	f.online[username]++
	f.lastTTL = ttl
	return nil
}

func (f *fakePresence) MarkOffline(_ context.Context, username string) error {
	if f.failOffline {
		return errors.New("presence unavailable")
	}
	f.offline[username]++
	return nil
}

type fakeMessages struct {
	saved      []*Message
	history    []*Message
	appendErr  error
	historyErr error
	nextID     int64
}

func (f *fakeMessages) Append(_ context.Context, sender Identity, receiverUsername, content string) (*Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.nextID++
	msg := &Message{
		ID:               f.nextID,
		SenderUsername:   sender.Username,
		ReceiverUsername: receiverUsername,
		Content:          content,
		CreatedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.saved = append(f.saved, msg)
	return msg, nil
}

func (f *fakeMessages) History(_ context.Context, _, _ string, limit int) ([]*Message, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if len(f.history) > limit {
		return f.history[:limit], nil
	}
	return f.history, nil
}

type sessionEnv struct {
	tokens   *fakeTokens
	dir      *fakeDirectory
	avatars  *fakeAvatars
	presence *fakePresence
	messages *fakeMessages
	hub      *Hub
}

func newSessionEnv() *sessionEnv {
	alice := Identity{UserID: 1, Username: "alice"}
	bob := Identity{UserID: 2, Username: "bob"}
	return &sessionEnv{
		tokens: &fakeTokens{users: map[string]Identity{
			"alice-token": alice,
			"bob-token":   bob,
		}},
		dir: &fakeDirectory{users: map[string]Identity{
			"alice": alice,
			"bob":   bob,
		}},
		avatars:  &fakeAvatars{urls: map[string]string{"alice": "http://cdn/alice.png"}},
		presence: newFakePresence(),
		messages: &fakeMessages{},
		hub:      NewHub(),
	}
}

func (e *sessionEnv) deps() Deps {
	return Deps{
		Tokens:    e.tokens,
		Directory: e.dir,
		Avatars:   e.avatars,
		Presence:  e.presence,
		Messages:  e.messages,
		Hub:       e.hub,
		Log:       log.Nop(),
	}
}

func (e *sessionEnv) session(id string) *Session {
	return NewSession(id, e.deps())
}

func nextEvent(t *testing.T, s *Session) *Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	default:
		t.Fatal("no event queued")
		return nil
	}
}

func drainEvents(s *Session) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestConnectSuccess(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")

	if err := sess.Connect(context.Background(), "alice-token", ""); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if sess.State() != StateJoined {
		t.Fatalf("state = %d, want StateJoined", sess.State())
	}
	if sess.Identity().Username != "alice" {
		t.Fatalf("identity = %q, want alice", sess.Identity().Username)
	}
	if env.presence.online["alice"] != 1 {
		t.Fatalf("MarkOnline calls = %d, want 1", env.presence.online["alice"])
	}
	if env.presence.lastTTL != defaultPresenceTTL {
		t.Fatalf("presence TTL = %v, want %v", env.presence.lastTTL, defaultPresenceTTL)
	}
	if !env.hub.Group(DefaultGroup).Contains(sess) {
		t.Fatal("session not in default group")
	}

	// Joined status broadcast lands in the session's own queue too, then the
	// connected acknowledgement.
	ev := nextEvent(t, sess)
	if ev.Kind != EventUserStatus || ev.Status != StatusJoined || ev.User != "alice" {
		t.Fatalf("first event = %+v, want joined status for alice", ev)
	}
	if ev.ImageURL != "http://cdn/alice.png" {
		t.Fatalf("avatar = %q, want alice's", ev.ImageURL)
	}
	ev = nextEvent(t, sess)
	if ev.Kind != EventConnected || ev.Status != StatusConnected {
		t.Fatalf("second event = %+v, want connected ack", ev)
	}
}

func TestConnectNoToken(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")

	err := sess.Connect(context.Background(), "", "")
	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("Connect err = %v, want RejectError", err)
	}
	if rej.Code != CloseAuthRequired {
		t.Fatalf("close code = %d, want %d", rej.Code, CloseAuthRequired)
	}
	if sess.State() != StateRejected {
		t.Fatalf("state = %d, want StateRejected", sess.State())
	}
	if len(env.presence.online) != 0 {
		t.Fatal("no presence record should be written")
	}
	if env.hub.Group(DefaultGroup).Size() != 0 {
		t.Fatal("no group membership should be created")
	}
}

func TestConnectInvalidToken(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")

	err := sess.Connect(context.Background(), "bogus", "")
	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("Connect err = %v, want RejectError", err)
	}
	if rej.Code != CloseAuthInvalid {
		t.Fatalf("close code = %d, want %d", rej.Code, CloseAuthInvalid)
	}
}

func TestConnectResolverFailure(t *testing.T) {
	env := newSessionEnv()
	env.tokens.err = errors.New("identity backend down")
	sess := env.session("s1")

	err := sess.Connect(context.Background(), "alice-token", "")
	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("Connect err = %v, want RejectError", err)
	}
	if rej.Code != CloseInternalError {
		t.Fatalf("close code = %d, want %d", rej.Code, CloseInternalError)
	}
}

func TestConnectPresenceFailureRollsBack(t *testing.T) {
	env := newSessionEnv()
	env.presence.failOnline = true
	env.presence.failOffline = true
	sess := env.session("s1")

	err := sess.Connect(context.Background(), "alice-token", "")
	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("Connect err = %v, want RejectError", err)
	}
	if rej.Code != CloseInternalError {
		t.Fatalf("close code = %d, want %d", rej.Code, CloseInternalError)
	}
	if env.hub.Group(DefaultGroup).Size() != 0 {
		t.Fatal("rejected session must not join the group")
	}
}

func TestConnectWithFriendHintReplaysHistory(t *testing.T) {
	env := newSessionEnv()
	env.messages.history = []*Message{
		{SenderUsername: "bob", ReceiverUsername: "alice", Content: "hi", CreatedAt: time.Now()},
		{SenderUsername: "alice", ReceiverUsername: "bob", Content: "hey", CreatedAt: time.Now()},
	}
	sess := env.session("s1")

	if err := sess.Connect(context.Background(), "alice-token", "bob"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	events := drainEvents(sess)
	if len(events) != 3 {
		t.Fatalf("got %d events, want joined+connected+history", len(events))
	}
	hist := events[2]
	if hist.Kind != EventHistory {
		t.Fatalf("third event kind = %d, want EventHistory", hist.Kind)
	}
	if len(hist.History) != 2 {
		t.Fatalf("history entries = %d, want 2", len(hist.History))
	}
	if hist.History[0].Content != "hi" || hist.History[1].Content != "hey" {
		t.Fatalf("history order wrong: %+v", hist.History)
	}
	if hist.History[1].ImageURL != "http://cdn/alice.png" {
		t.Fatalf("alice's entries should carry her avatar, got %q", hist.History[1].ImageURL)
	}
}

func TestConnectHistoryReadFailureReplaysEmpty(t *testing.T) {
	env := newSessionEnv()
	env.messages.historyErr = errors.New("disk error")
	sess := env.session("s1")

	if err := sess.Connect(context.Background(), "alice-token", "bob"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	events := drainEvents(sess)
	hist := events[len(events)-1]
	if hist.Kind != EventHistory {
		t.Fatalf("last event kind = %d, want EventHistory", hist.Kind)
	}
	if hist.History == nil || len(hist.History) != 0 {
		t.Fatalf("history = %v, want empty list", hist.History)
	}
}

func TestReceiveBeforeJoin(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")

	err := sess.Receive(context.Background(), []byte(`{"message":"hi","receiver_username":"bob"}`))
	if !errors.Is(err, ErrNotJoined) {
		t.Fatalf("Receive err = %v, want ErrNotJoined", err)
	}
}

func TestReceiveMalformedJSON(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")
	mustConnect(t, sess, "alice-token", "")
	drainEvents(sess)

	if err := sess.Receive(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	ev := nextEvent(t, sess)
	if ev.Kind != EventError || ev.Code != CodeMalformedPayload {
		t.Fatalf("event = %+v, want malformed-payload error", ev)
	}
	if sess.State() != StateJoined {
		t.Fatal("protocol error must not close the session")
	}
}

func TestReceiveValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"missing message", `{"receiver_username":"bob"}`},
		{"missing receiver", `{"message":"hi"}`},
		{"empty both", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newSessionEnv()
			sess := env.session("s1")
			mustConnect(t, sess, "alice-token", "")
			drainEvents(sess)

			if err := sess.Receive(context.Background(), []byte(tc.payload)); err != nil {
				t.Fatalf("Receive: %v", err)
			}
			ev := nextEvent(t, sess)
			if ev.Kind != EventError || ev.Code != CodeValidation {
				t.Fatalf("event = %+v, want validation error", ev)
			}
			if len(env.messages.saved) != 0 {
				t.Fatal("nothing should be persisted")
			}
		})
	}
}

func TestReceiveUnknownReceiver(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")
	mustConnect(t, sess, "alice-token", "")
	drainEvents(sess)

	if err := sess.Receive(context.Background(), []byte(`{"message":"hi","receiver_username":"carol"}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	ev := nextEvent(t, sess)
	if ev.Kind != EventError || ev.Code != CodeReceiverNotFound {
		t.Fatalf("event = %+v, want receiver-not-found error", ev)
	}
	if len(env.messages.saved) != 0 {
		t.Fatal("nothing should be persisted")
	}

	// The session survives and a corrected message goes through.
	if err := sess.Receive(context.Background(), []byte(`{"message":"hi","receiver_username":"bob"}`)); err != nil {
		t.Fatalf("Receive after error: %v", err)
	}
	if len(env.messages.saved) != 1 {
		t.Fatalf("persisted = %d, want 1", len(env.messages.saved))
	}
}

func TestReceivePersistenceFailure(t *testing.T) {
	env := newSessionEnv()
	env.messages.appendErr = errors.New("disk full")
	sess := env.session("s1")
	mustConnect(t, sess, "alice-token", "")
	drainEvents(sess)

	peer := env.session("s2")
	mustConnect(t, peer, "bob-token", "")
	drainEvents(sess)
	drainEvents(peer)

	if err := sess.Receive(context.Background(), []byte(`{"message":"hi","receiver_username":"bob"}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	ev := nextEvent(t, sess)
	if ev.Kind != EventError || ev.Code != CodePersistence {
		t.Fatalf("event = %+v, want persistence error", ev)
	}
	// Persist-then-publish: a failed save publishes nothing to the group.
	if got := drainEvents(peer); len(got) != 0 {
		t.Fatalf("peer received %d events, want 0", len(got))
	}
}

func TestReceiveBroadcastsToGroup(t *testing.T) {
	env := newSessionEnv()
	alice := env.session("s1")
	mustConnect(t, alice, "alice-token", "")
	bob := env.session("s2")
	mustConnect(t, bob, "bob-token", "")
	drainEvents(alice)
	drainEvents(bob)

	if err := alice.Receive(context.Background(), []byte(`{"message":"hello bob","receiver_username":"bob"}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if len(env.messages.saved) != 1 {
		t.Fatalf("persisted = %d, want 1", len(env.messages.saved))
	}
	saved := env.messages.saved[0]
	if saved.SenderUsername != "alice" || saved.ReceiverUsername != "bob" || saved.Content != "hello bob" {
		t.Fatalf("saved = %+v", saved)
	}

	got := nextEvent(t, bob)
	if got.Kind != EventChatMessage || got.User != "alice" || got.Message != "hello bob" {
		t.Fatalf("bob's event = %+v", got)
	}
	if got.Timestamp != saved.CreatedAt {
		t.Fatal("broadcast timestamp must be the persisted timestamp")
	}

	aliceEvents := drainEvents(alice)
	if len(aliceEvents) == 0 || aliceEvents[0].Kind != EventChatMessage {
		t.Fatalf("sender must receive its own broadcast, got %+v", aliceEvents)
	}
}

func TestReceiveRefreshesPresence(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")
	mustConnect(t, sess, "alice-token", "")
	drainEvents(sess)

	if err := sess.Receive(context.Background(), []byte(`{"message":"hi","receiver_username":"bob"}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if env.presence.online["alice"] != 2 {
		t.Fatalf("MarkOnline calls = %d, want connect + refresh", env.presence.online["alice"])
	}
}

func TestFirstSendReplaysHistoryOnce(t *testing.T) {
	env := newSessionEnv()
	env.messages.history = []*Message{
		{SenderUsername: "bob", ReceiverUsername: "alice", Content: "earlier", CreatedAt: time.Now()},
	}
	sess := env.session("s1")
	mustConnect(t, sess, "alice-token", "")
	drainEvents(sess)

	if err := sess.Receive(context.Background(), []byte(`{"message":"hi","receiver_username":"bob"}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	events := drainEvents(sess)
	var histCount int
	for _, ev := range events {
		if ev.Kind == EventHistory {
			histCount++
		}
	}
	if histCount != 1 {
		t.Fatalf("history events after first send = %d, want 1", histCount)
	}

	if err := sess.Receive(context.Background(), []byte(`{"message":"again","receiver_username":"bob"}`)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	for _, ev := range drainEvents(sess) {
		if ev.Kind == EventHistory {
			t.Fatal("history must replay only once per session")
		}
	}
}

func TestDisconnect(t *testing.T) {
	env := newSessionEnv()
	alice := env.session("s1")
	mustConnect(t, alice, "alice-token", "")
	bob := env.session("s2")
	mustConnect(t, bob, "bob-token", "")
	drainEvents(alice)
	drainEvents(bob)

	alice.Disconnect(context.Background())

	if alice.State() != StateClosed {
		t.Fatalf("state = %d, want StateClosed", alice.State())
	}
	if env.presence.offline["alice"] != 1 {
		t.Fatalf("MarkOffline calls = %d, want 1", env.presence.offline["alice"])
	}
	if env.hub.Group(DefaultGroup).Contains(alice) {
		t.Fatal("closed session must leave the group")
	}

	ev := nextEvent(t, bob)
	if ev.Kind != EventUserStatus || ev.Status != StatusLeft || ev.User != "alice" {
		t.Fatalf("bob's event = %+v, want left status for alice", ev)
	}

	// Queue is closed after teardown.
	if _, ok := <-alice.Events(); ok {
		t.Fatal("events channel should be closed")
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")
	mustConnect(t, sess, "alice-token", "")

	sess.Disconnect(context.Background())
	sess.Disconnect(context.Background())

	if env.presence.offline["alice"] != 1 {
		t.Fatalf("MarkOffline calls = %d, want 1", env.presence.offline["alice"])
	}
}

func TestDisconnectRejectedSession(t *testing.T) {
	env := newSessionEnv()
	sess := env.session("s1")
	if err := sess.Connect(context.Background(), "", ""); err == nil {
		t.Fatal("Connect should fail")
	}

	sess.Disconnect(context.Background())

	if len(env.presence.offline) != 0 {
		t.Fatal("rejected session has no presence to clear")
	}
	if sess.State() != StateClosed {
		t.Fatalf("state = %d, want StateClosed", sess.State())
	}
}

func mustConnect(t *testing.T, s *Session, token, friend string) {
	t.Helper()
	if err := s.Connect(context.Background(), token, friend); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}
