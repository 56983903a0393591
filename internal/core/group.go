package core

import (
	"sync"

	"github.com/pairchat/pairchat-server/internal/telemetry"
)

// Group is a named fan-out channel: every member session receives every
// event published to the group. Membership changes and publish enumeration
// are mutually exclusive; delivery to one member never blocks on another.
type Group struct {
	name string

	mu      sync.Mutex
	members map[*Session]struct{}
}

// NewGroup constructs an empty group.
func NewGroup(name string) *Group {
	return &Group{
		name:    name,
		members: make(map[*Session]struct{}),
	}
}

// Name returns the group's well-known name.
func (g *Group) Name() string {
	return g.name
}

// Join adds a session to the group. Idempotent per session.
func (g *Group) Join(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[s] = struct{}{}
}

// Leave removes a session from the group. No-op if absent.
func (g *Group) Leave(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, s)
}

// Publish delivers event to every current member. Events published through
// the same group arrive at each member in publish order; a member whose
// delivery queue is full has the event dropped rather than stalling the rest.
func (g *Group) Publish(event *Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	telemetry.EventsPublished.Inc()
	for member := range g.members {
		if !member.deliver(event) {
			telemetry.EventsDropped.Inc()
		}
	}
}

// Size returns the current number of members.
func (g *Group) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Contains reports whether s is currently a member.
func (g *Group) Contains(s *Session) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.members[s]
	return ok
}
