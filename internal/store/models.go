package store

import "time"

// RoomSnapshot is the final state of a room captured at teardown. It is an
// audit record for the persistence collaborator: the coordinator writes it
// and never reads it back into live room state.
type RoomSnapshot struct {
	ID       int64
	RoomID   string
	Language string
	Code     string
	ClosedAt time.Time
}
