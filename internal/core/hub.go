package core

import "sync"

// DefaultGroup is the single broadcast domain every authenticated session
// joins. All online users share it; clients filter messages locally.
const DefaultGroup = "general"

// Hub owns broadcast groups, creating them lazily on first use.
type Hub struct {
	mu     sync.Mutex
	groups map[string]*Group
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]*Group),
	}
}

// Group returns the named group, creating it if needed.
func (h *Hub) Group(name string) *Group {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[name]
	if !ok {
		g = NewGroup(name)
		h.groups[name] = g
	}
	return g
}
