package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"code-update","data":{"roomId":"abc","code":"x=1"}}`))
	require.NoError(t, err)
	assert.Equal(t, EvtCodeUpdate, env.Event)

	var p CodePayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "abc", p.RoomID)
	assert.Equal(t, "x=1", p.Code)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)

	// valid JSON but no event name
	_, err = DecodeEnvelope([]byte(`{"data":{}}`))
	assert.Error(t, err)
}

func TestFrameRoundTrip(t *testing.T) {
	b := Frame(EvtUserJoined, UserJoinedPayload{Username: "alice", Language: "javascript", Code: ""})

	env, err := DecodeEnvelope(b)
	require.NoError(t, err)
	assert.Equal(t, EvtUserJoined, env.Event)

	var p UserJoinedPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "javascript", p.Language)
}

func TestFrameOmitsRoomOnRelay(t *testing.T) {
	// relayed payloads never leak the roomId back to clients
	b := Frame(EvtCursorUpdate, CursorPayload{Username: "alice", Line: 3, Column: 7})
	assert.NotContains(t, string(b), "roomId")
}

func TestRoomUsersFrameIsArray(t *testing.T) {
	b := Frame(EvtRoomUsers, []string{"alice", "bob"})

	env, err := DecodeEnvelope(b)
	require.NoError(t, err)

	var users []string
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Equal(t, []string{"alice", "bob"}, users)
}
