package room

import (
	"log/slog"
)

// Archiver receives the final state of a room at teardown. Implementations
// must treat it as fire-and-forget: the coordinator never reads it back, and
// a fresh join after teardown always starts from defaults.
type Archiver interface {
	ArchiveRoom(roomID string, final Snapshot)
}

// Presence owns room membership policy on top of the Store: it decides when
// a room is created, when it is torn down, and what the caller should
// broadcast afterwards. The Store itself never deletes anything.
type Presence struct {
	store   *Store
	log     *slog.Logger
	archive Archiver // optional
}

func NewPresence(store *Store, log *slog.Logger, archive Archiver) *Presence {
	return &Presence{store: store, log: log, archive: archive}
}

// JoinResult carries everything the protocol layer broadcasts after a join:
// the updated participant list and the state the new joiner hydrates from.
type JoinResult struct {
	Users    []string
	Language string
	Code     string
	Created  bool
}

// LeaveResult tells the caller what happened: Removed is false for a name
// that was never in the room, Closed means the room was torn down and there
// is nobody left to notify.
type LeaveResult struct {
	Users   []string
	Removed bool
	Closed  bool
}

// Join adds name to the room, creating it with default language and an empty
// code buffer if this is the first join. Joining under a name that is
// already present merges into the existing entry rather than erroring.
func (p *Presence) Join(roomID, name string) JoinResult {
	created := !p.store.Exists(roomID)
	users, snap := p.store.AddParticipant(roomID, name)
	if created {
		p.log.Info("room.created", "room", roomID, "user", name)
	}
	p.log.Debug("room.join", "room", roomID, "user", name, "users", len(users))
	return JoinResult{Users: users, Language: snap.Language, Code: snap.Code, Created: created}
}

// Leave removes name from the room. When the last participant leaves the
// room is deleted on the spot and its final state is handed to the archiver.
func (p *Presence) Leave(roomID, name string) LeaveResult {
	users, removed, empty := p.store.RemoveParticipant(roomID, name)
	if !removed {
		return LeaveResult{Users: users, Removed: false}
	}
	if empty {
		final, deleted := p.store.DeleteIfEmpty(roomID)
		if deleted {
			p.log.Info("room.closed", "room", roomID, "last", name)
			if p.archive != nil {
				p.archive.ArchiveRoom(roomID, final)
			}
			return LeaveResult{Removed: true, Closed: true}
		}
		// a join raced in after the set emptied; fall through with the
		// current list so peers still hear about the departure
		if cur, ok := p.store.Get(roomID); ok {
			users = cur.Users
		}
	}
	p.log.Debug("room.leave", "room", roomID, "user", name, "users", len(users))
	return LeaveResult{Users: users, Removed: true}
}
