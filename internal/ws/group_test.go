package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupsJoinLeave(t *testing.T) {
	g := NewGroups()
	c1 := NewConn(nil)
	c2 := NewConn(nil)

	g.Join("abc", c1)
	g.Join("abc", c2)
	assert.Len(t, g.Snapshot("abc", nil), 2)

	emptied := g.Leave("abc", c1)
	assert.False(t, emptied)

	emptied = g.Leave("abc", c2)
	assert.True(t, emptied)
	assert.Nil(t, g.Snapshot("abc", nil))
}

func TestSnapshotExcludesSender(t *testing.T) {
	g := NewGroups()
	c1 := NewConn(nil)
	c2 := NewConn(nil)
	g.Join("abc", c1)
	g.Join("abc", c2)

	snap := g.Snapshot("abc", c1)
	require.Len(t, snap, 1)
	assert.Same(t, c2, snap[0])
}

func TestEmitToRoomExcept(t *testing.T) {
	g := NewGroups()
	sender := NewConn(nil)
	peer := NewConn(nil)
	g.Join("abc", sender)
	g.Join("abc", peer)

	g.EmitToRoomExcept("abc", EvtCodeUpdate, CodePayload{Code: "x=1"}, sender)

	assert.Len(t, peer.out, 1)
	assert.Len(t, sender.out, 0)
}

func TestEmitToUnknownRoomIsNoop(t *testing.T) {
	g := NewGroups()
	g.EmitToRoom("ghost", EvtRoomUsers, []string{})
}

func TestEmitDropsWhenQueueFull(t *testing.T) {
	g := NewGroups()
	c := NewConn(nil)
	g.Join("abc", c)

	// saturate the send queue
	for i := 0; i < cap(c.out); i++ {
		c.Send([]byte("{}"))
	}

	// must not block, the extra frame is dropped
	g.EmitToRoom("abc", EvtCodeUpdate, CodePayload{Code: "x"})
	assert.Len(t, c.out, cap(c.out))
}

func TestConnBinding(t *testing.T) {
	c := NewConn(nil)

	_, _, ok := c.Binding()
	assert.False(t, ok)

	assert.True(t, c.Bind("abc", "alice"))
	// idempotent rejoin is fine, switching is not
	assert.True(t, c.Bind("abc", "alice"))
	assert.False(t, c.Bind("other", "alice"))
	assert.False(t, c.Bind("abc", "bob"))

	roomID, name, ok := c.Binding()
	assert.True(t, ok)
	assert.Equal(t, "abc", roomID)
	assert.Equal(t, "alice", name)

	c.Unbind()
	_, _, ok = c.Binding()
	assert.False(t, ok)
}
