package room

import (
	"sync"
)

// DefaultLanguage is assigned when a room is first created and stays until
// someone sends a language-update, regardless of later joins.
const DefaultLanguage = "javascript"

// Snapshot is an immutable copy of a room's shared state, safe to hand to
// broadcast code outside the store's lock.
type Snapshot struct {
	Language string
	Code     string
	Users    []string
}

type state struct {
	language string
	code     string
	users    []string // insertion order, set semantics over display name
}

func (s *state) snapshot() Snapshot {
	users := make([]string, len(s.users))
	copy(users, s.users)
	return Snapshot{Language: s.language, Code: s.code, Users: users}
}

func (s *state) has(name string) bool {
	for _, u := range s.users {
		if u == name {
			return true
		}
	}
	return false
}

func (s *state) remove(name string) bool {
	for i, u := range s.users {
		if u == name {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return true
		}
	}
	return false
}

// Store is the authoritative in-memory table of live rooms. A room exists
// exactly while its key is present; the key is added on the first join and
// removed when the participant set empties. All mutations and the snapshots
// they produce happen under one lock so no client can observe an
// out-of-order participant list.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*state
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*state)}
}

func (st *Store) getOrCreateLocked(roomID string) *state {
	s, ok := st.rooms[roomID]
	if !ok {
		s = &state{language: DefaultLanguage, code: ""}
		st.rooms[roomID] = s
	}
	return s
}

// GetOrCreate returns the room's state, initializing defaults for an unseen
// roomID. Existing rooms come back unchanged.
func (st *Store) GetOrCreate(roomID string) Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.getOrCreateLocked(roomID).snapshot()
}

// AddParticipant creates the room if needed, adds name (no-op if already
// present), and returns the updated participant list plus the state the
// joiner hydrates from, all in one critical section.
func (st *Store) AddParticipant(roomID, name string) ([]string, Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.getOrCreateLocked(roomID)
	if !s.has(name) {
		s.users = append(s.users, name)
	}
	snap := s.snapshot()
	return snap.Users, snap
}

// RemoveParticipant removes name from the room and returns the updated list,
// whether anything was removed, and whether the set is now empty. Deletion
// of an emptied room is the caller's decision (see Presence).
func (st *Store) RemoveParticipant(roomID, name string) (users []string, removed, empty bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.rooms[roomID]
	if !ok {
		return nil, false, false
	}
	removed = s.remove(name)
	snap := s.snapshot()
	return snap.Users, removed, len(snap.Users) == 0
}

// DeleteIfEmpty tears the room down if its participant set is still empty,
// returning the final state for archival. A join that raced in between
// emptying and deletion keeps the room alive.
func (st *Store) DeleteIfEmpty(roomID string) (Snapshot, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.rooms[roomID]
	if !ok || len(s.users) > 0 {
		return Snapshot{}, false
	}
	delete(st.rooms, roomID)
	return s.snapshot(), true
}

// SetLanguage overwrites the room's language (last write wins). Returns
// false if the room does not exist.
func (st *Store) SetLanguage(roomID, language string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.rooms[roomID]
	if !ok {
		return false
	}
	s.language = language
	return true
}

// SetCode overwrites the room's code buffer (last write wins). Returns
// false if the room does not exist.
func (st *Store) SetCode(roomID, code string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.rooms[roomID]
	if !ok {
		return false
	}
	s.code = code
	return true
}

func (st *Store) Exists(roomID string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.rooms[roomID]
	return ok
}

// Get returns a snapshot of an existing room.
func (st *Store) Get(roomID string) (Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.rooms[roomID]
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Len returns the number of live rooms.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.rooms)
}

// ActiveRooms maps each live roomID to its participant count.
func (st *Store) ActiveRooms() map[string]int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make(map[string]int, len(st.rooms))
	for id, s := range st.rooms {
		out[id] = len(s.users)
	}
	return out
}
