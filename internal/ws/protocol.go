package ws

import (
	"encoding/json"
	"errors"
)

// Wire format: one JSON object per websocket text frame, {"event": ..., "data": {...}}.
// Event names and payload fields match the editor client contract.

// Client → server events.
const (
	EvtJoinRoom       = "join-room"
	EvtUserLeft       = "user-left" // also server → client, departure notice
	EvtLanguageUpdate = "language-update"
	EvtCodeUpdate     = "code-update"
	EvtCursorUpdate   = "cursor-update"
	EvtSendMessage    = "send-message"
)

// Server → client events.
const (
	EvtJoinAck        = "join-ack"
	EvtUserJoined     = "user-joined"
	EvtRoomUsers      = "room-users"
	EvtReceiveMessage = "receive-message"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

var errBadEnvelope = errors.New("bad envelope")

// DecodeEnvelope parses an inbound frame. Frames without an event name are
// rejected; payload validation happens per event.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, errBadEnvelope
	}
	return env, nil
}

// Frame encodes an outbound event. Payloads are plain structs or slices and
// always marshal; a failure would be a programming error, so it panics.
func Frame(event string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		panic("ws: unmarshalable frame payload: " + err.Error())
	}
	b, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		panic("ws: unmarshalable frame: " + err.Error())
	}
	return b
}

// JoinPayload is shared by join-room and the explicit user-left event.
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type LanguagePayload struct {
	RoomID   string `json:"roomId,omitempty"`
	Language string `json:"language"`
}

type CodePayload struct {
	RoomID string `json:"roomId,omitempty"`
	Code   string `json:"code"`
}

type CursorPayload struct {
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

type ChatPayload struct {
	RoomID   string `json:"roomId,omitempty"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// UserJoinedPayload hydrates every room member (including the joiner) with
// the authoritative language and code buffer.
type UserJoinedPayload struct {
	Username string `json:"username"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

type UserLeftPayload struct {
	Username string `json:"username"`
}
