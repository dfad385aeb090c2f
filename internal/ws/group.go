package ws

import "sync"

// Groups tracks which connections currently belong to each room's socket
// group and fans events out to them. Recipient sets are materialized under
// the lock; sends happen outside it so a slow socket never holds the lock.
type Groups struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
}

func NewGroups() *Groups {
	return &Groups{rooms: make(map[string]map[*Conn]struct{})}
}

// Join adds a connection to a room's socket group
func (g *Groups) Join(roomID string, c *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.rooms[roomID]
	if !ok {
		set = make(map[*Conn]struct{})
		g.rooms[roomID] = set
	}
	set[c] = struct{}{}
}

// Leave removes a connection and reports whether the socket group emptied.
func (g *Groups) Leave(roomID string, c *Conn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.rooms[roomID]
	if !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(g.rooms, roomID)
		return true
	}
	return false
}

// Snapshot returns the room's current connections, minus except when set.
func (g *Groups) Snapshot(roomID string, except *Conn) []*Conn {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set, ok := g.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]*Conn, 0, len(set))
	for c := range set {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

// EmitToRoom delivers an event to every connection in the room, including
// the originator (used for room-users and user-joined).
func (g *Groups) EmitToRoom(roomID, event string, data any) {
	g.emit(roomID, event, data, nil)
}

// EmitToRoomExcept delivers to everyone but sender (used for code, language,
// cursor and chat relays so the author never fights its own update).
func (g *Groups) EmitToRoomExcept(roomID, event string, data any, sender *Conn) {
	g.emit(roomID, event, data, sender)
}

func (g *Groups) emit(roomID, event string, data any, except *Conn) {
	targets := g.Snapshot(roomID, except)
	if len(targets) == 0 {
		return
	}
	b := Frame(event, data)
	for _, c := range targets {
		c.Send(b)
	}
}
