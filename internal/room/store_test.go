package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateDefaults(t *testing.T) {
	st := NewStore()

	snap := st.GetOrCreate("abc")
	assert.Equal(t, "javascript", snap.Language)
	assert.Equal(t, "", snap.Code)
	assert.Empty(t, snap.Users)
}

func TestGetOrCreateReturnsExistingUnchanged(t *testing.T) {
	st := NewStore()
	st.GetOrCreate("abc")
	require.True(t, st.SetLanguage("abc", "python"))
	require.True(t, st.SetCode("abc", "print(1)"))

	snap := st.GetOrCreate("abc")
	assert.Equal(t, "python", snap.Language)
	assert.Equal(t, "print(1)", snap.Code)
}

func TestAddParticipantOrderAndDedup(t *testing.T) {
	st := NewStore()

	users, _ := st.AddParticipant("abc", "alice")
	assert.Equal(t, []string{"alice"}, users)

	users, _ = st.AddParticipant("abc", "bob")
	assert.Equal(t, []string{"alice", "bob"}, users)

	// same name again merges, it does not duplicate
	users, _ = st.AddParticipant("abc", "alice")
	assert.Equal(t, []string{"alice", "bob"}, users)
}

func TestAddParticipantHydrationSnapshot(t *testing.T) {
	st := NewStore()
	st.AddParticipant("abc", "alice")
	st.SetLanguage("abc", "go")
	st.SetCode("abc", "package main")

	_, snap := st.AddParticipant("abc", "bob")
	assert.Equal(t, "go", snap.Language)
	assert.Equal(t, "package main", snap.Code)
}

func TestSetCodeLastWriteWins(t *testing.T) {
	st := NewStore()
	st.AddParticipant("abc", "alice")

	require.True(t, st.SetCode("abc", "x=1"))
	require.True(t, st.SetCode("abc", "x=2"))

	snap, ok := st.Get("abc")
	require.True(t, ok)
	assert.Equal(t, "x=2", snap.Code)
}

func TestSetOnNonexistentRoomIsNoop(t *testing.T) {
	st := NewStore()

	assert.False(t, st.SetCode("ghost", "x=1"))
	assert.False(t, st.SetLanguage("ghost", "python"))
	assert.False(t, st.Exists("ghost"))
}

func TestRemoveParticipant(t *testing.T) {
	st := NewStore()
	st.AddParticipant("abc", "alice")
	st.AddParticipant("abc", "bob")

	users, removed, empty := st.RemoveParticipant("abc", "alice")
	assert.True(t, removed)
	assert.False(t, empty)
	assert.Equal(t, []string{"bob"}, users)

	// unknown name is reported, nothing changes
	users, removed, empty = st.RemoveParticipant("abc", "carol")
	assert.False(t, removed)
	assert.False(t, empty)
	assert.Equal(t, []string{"bob"}, users)

	users, removed, empty = st.RemoveParticipant("abc", "bob")
	assert.True(t, removed)
	assert.True(t, empty)
	assert.Empty(t, users)
}

func TestDeleteIfEmpty(t *testing.T) {
	st := NewStore()
	st.AddParticipant("abc", "alice")
	st.SetCode("abc", "x=1")
	st.RemoveParticipant("abc", "alice")

	final, deleted := st.DeleteIfEmpty("abc")
	require.True(t, deleted)
	assert.Equal(t, "x=1", final.Code)
	assert.False(t, st.Exists("abc"))

	// a fresh join starts from defaults, not the archived state
	snap := st.GetOrCreate("abc")
	assert.Equal(t, "javascript", snap.Language)
	assert.Equal(t, "", snap.Code)
}

func TestDeleteIfEmptyKeepsRepopulatedRoom(t *testing.T) {
	st := NewStore()
	st.AddParticipant("abc", "alice")
	st.RemoveParticipant("abc", "alice")

	// a join raced in before teardown ran
	st.AddParticipant("abc", "bob")

	_, deleted := st.DeleteIfEmpty("abc")
	assert.False(t, deleted)
	assert.True(t, st.Exists("abc"))
}

func TestSnapshotIsACopy(t *testing.T) {
	st := NewStore()
	users, _ := st.AddParticipant("abc", "alice")
	users[0] = "mallory"

	snap, _ := st.Get("abc")
	assert.Equal(t, []string{"alice"}, snap.Users)
}

func TestStoreConcurrency(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			roomID := fmt.Sprintf("room-%d", i%5)
			st.AddParticipant(roomID, fmt.Sprintf("user-%d", i))
			st.SetCode(roomID, "x=1")
			st.Get(roomID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, st.Len())
	for id, n := range st.ActiveRooms() {
		assert.Equal(t, 20, n, "room %s", id)
	}
}
