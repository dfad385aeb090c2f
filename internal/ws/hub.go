package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/HarshilGandhi7/Code-collab/internal/room"
	"github.com/HarshilGandhi7/Code-collab/pkg/metrics"
	"github.com/HarshilGandhi7/Code-collab/pkg/ratelimit"
)

const (
	// inbound events allowed per connection per second
	eventsPerSecond = 200
	// throttled events before the connection is dropped outright
	maxThrottled = 1000
)

// Hub is the session protocol handler: it accepts connections, dispatches
// their events, mutates room state through the store/presence layers, and
// fans results out through the socket groups. It holds no room state of its
// own.
type Hub struct {
	log      *slog.Logger
	store    *room.Store
	presence *room.Presence
	groups   *Groups
	bus      *RedisBus // nil when no redis is configured
	limiter  *ratelimit.Limiter
	instance string
	conns    atomic.Int64
}

func NewHub(logger *slog.Logger, store *room.Store, presence *room.Presence, bus *RedisBus) *Hub {
	return &Hub{
		log:      logger,
		store:    store,
		presence: presence,
		groups:   NewGroups(),
		bus:      bus,
		limiter:  ratelimit.New(eventsPerSecond, time.Second),
		instance: uuid.NewString(),
	}
}

// ActiveConnections returns the number of open websocket connections.
func (h *Hub) ActiveConnections() int64 { return h.conns.Load() }

// Run forwards bus messages from other instances into local rooms. Blocks
// until ctx is cancelled; a nil bus just waits.
func (h *Hub) Run(ctx context.Context) {
	if h.bus != nil {
		go h.bus.Subscribe(ctx, h.onBusMessage)
	}
	<-ctx.Done()
}

// onBusMessage filters bus traffic before it touches local state: this
// instance's own publishes were already delivered locally and are skipped.
func (h *Hub) onBusMessage(m BusMessage) {
	if m.Origin == h.instance {
		return
	}
	h.applyRemote(m)
}

// ServeWS handles one client connection for its whole lifetime.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sock, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(sock)
	h.conns.Add(1)
	metrics.ConnectionsActive.Inc()
	h.log.Debug("ws.connected", "conn", c.ID())

	go c.WriteLoop(ctx)

	throttled := 0
	for {
		b, ok := c.Read(ctx)
		if !ok {
			break
		}
		env, err := DecodeEnvelope(b)
		if err != nil {
			h.log.Debug("ws.frame.bad", "conn", c.ID(), "err", err)
			continue
		}
		if !h.limiter.Allow(c.ID()) {
			throttled++
			if throttled%100 == 1 {
				h.log.Warn("ws.throttled", "conn", c.ID(), "count", throttled)
			}
			if throttled > maxThrottled {
				h.log.Warn("ws.throttle.disconnect", "conn", c.ID())
				break
			}
			continue
		}
		h.Dispatch(ctx, c, env)
	}

	h.Disconnect(c)
	h.limiter.Forget(c.ID())
	h.conns.Add(-1)
	metrics.ConnectionsActive.Dec()
	_ = c.Close()
}

// Dispatch routes one decoded event. A panic in a handler is contained to
// the event: the connection loop and every other room keep running.
func (h *Hub) Dispatch(ctx context.Context, c *Conn, env Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("ws.handler.panic", "event", env.Event, "conn", c.ID(), "err", rec)
		}
	}()

	switch env.Event {
	case EvtJoinRoom:
		h.handleJoin(c, env.Data)
	case EvtUserLeft:
		h.handleLeave(c, env.Data)
	case EvtLanguageUpdate:
		h.handleLanguage(ctx, c, env.Data)
	case EvtCodeUpdate:
		h.handleCode(ctx, c, env.Data)
	case EvtCursorUpdate:
		h.handleCursor(ctx, c, env.Data)
	case EvtSendMessage:
		h.handleChat(ctx, c, env.Data)
	default:
		h.log.Debug("ws.event.unknown", "event", env.Event, "conn", c.ID())
		return
	}
	metrics.EventsTotal.WithLabelValues(env.Event).Inc()
}

func (h *Hub) handleJoin(c *Conn, data json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.Username == "" {
		h.log.Debug("ws.join.invalid", "conn", c.ID())
		return
	}
	if !c.Bind(p.RoomID, p.Username) {
		// already bound to another room/name; no mid-session switching
		h.log.Warn("ws.join.rebound", "conn", c.ID(), "room", p.RoomID)
		return
	}
	h.groups.Join(p.RoomID, c)
	res := h.presence.Join(p.RoomID, p.Username)

	h.groups.EmitToRoom(p.RoomID, EvtUserJoined, UserJoinedPayload{
		Username: p.Username,
		Language: res.Language,
		Code:     res.Code,
	})
	h.groups.EmitToRoom(p.RoomID, EvtRoomUsers, res.Users)
	c.Send(Frame(EvtJoinAck, struct{}{}))

	metrics.RoomsActive.Set(float64(h.store.Len()))
}

func (h *Hub) handleLeave(c *Conn, data json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.Username == "" {
		h.log.Debug("ws.leave.invalid", "conn", c.ID())
		return
	}
	res := h.presence.Leave(p.RoomID, p.Username)
	if res.Removed && !res.Closed {
		h.groups.EmitToRoomExcept(p.RoomID, EvtUserLeft, UserLeftPayload{Username: p.Username}, c)
		h.groups.EmitToRoom(p.RoomID, EvtRoomUsers, res.Users)
	}
	// leave the socket group only when the connection leaves on its own
	// behalf, so a later disconnect is a clean no-op
	if rid, name, ok := c.Binding(); ok && rid == p.RoomID && name == p.Username {
		h.groups.Leave(p.RoomID, c)
		c.Unbind()
	}
	metrics.RoomsActive.Set(float64(h.store.Len()))
}

func (h *Hub) handleLanguage(ctx context.Context, c *Conn, data json.RawMessage) {
	var p LanguagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		h.log.Debug("ws.language.invalid", "conn", c.ID())
		return
	}
	if !h.store.SetLanguage(p.RoomID, p.Language) {
		return // room nobody has joined
	}
	out := LanguagePayload{Language: p.Language}
	h.groups.EmitToRoomExcept(p.RoomID, EvtLanguageUpdate, out, c)
	h.publish(ctx, p.RoomID, EvtLanguageUpdate, out)
}

func (h *Hub) handleCode(ctx context.Context, c *Conn, data json.RawMessage) {
	var p CodePayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		h.log.Debug("ws.code.invalid", "conn", c.ID())
		return
	}
	if !h.store.SetCode(p.RoomID, p.Code) {
		return
	}
	out := CodePayload{Code: p.Code}
	h.groups.EmitToRoomExcept(p.RoomID, EvtCodeUpdate, out, c)
	h.publish(ctx, p.RoomID, EvtCodeUpdate, out)
}

func (h *Hub) handleCursor(ctx context.Context, c *Conn, data json.RawMessage) {
	var p CursorPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		h.log.Debug("ws.cursor.invalid", "conn", c.ID())
		return
	}
	// ephemeral: relayed, never stored
	out := CursorPayload{Username: p.Username, Line: p.Line, Column: p.Column}
	h.groups.EmitToRoomExcept(p.RoomID, EvtCursorUpdate, out, c)
	h.publish(ctx, p.RoomID, EvtCursorUpdate, out)
}

func (h *Hub) handleChat(ctx context.Context, c *Conn, data json.RawMessage) {
	var p ChatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		h.log.Debug("ws.chat.invalid", "conn", c.ID())
		return
	}
	out := ChatPayload{Message: p.Message, Username: p.Username}
	h.groups.EmitToRoomExcept(p.RoomID, EvtReceiveMessage, out, c)
	h.publish(ctx, p.RoomID, EvtReceiveMessage, out)
}

// Disconnect reaps a connection's membership using its recorded binding. A
// connection that never completed a join is a no-op.
func (h *Hub) Disconnect(c *Conn) {
	roomID, name, ok := c.Binding()
	if !ok {
		return
	}
	h.groups.Leave(roomID, c)
	res := h.presence.Leave(roomID, name)
	if res.Removed && !res.Closed {
		// the departing connection is already out of the group
		h.groups.EmitToRoom(roomID, EvtUserLeft, UserLeftPayload{Username: name})
		h.groups.EmitToRoom(roomID, EvtRoomUsers, res.Users)
	}
	metrics.RoomsActive.Set(float64(h.store.Len()))
	h.log.Debug("ws.disconnected", "conn", c.ID(), "room", roomID, "user", name)
}

// publish mirrors a content event to other instances; no-op without a bus.
func (h *Hub) publish(ctx context.Context, roomID, event string, payload any) {
	if h.bus == nil {
		return
	}
	raw, _ := json.Marshal(payload)
	if err := h.bus.Publish(ctx, BusMessage{
		Origin: h.instance,
		RoomID: roomID,
		Event:  event,
		Data:   raw,
	}); err != nil {
		h.log.Debug("bus.publish", "event", event, "err", err)
	}
}

// applyRemote folds a peer instance's content event into local state and
// relays it to local room members. Presence stays instance-local, so only
// content events arrive here.
func (h *Hub) applyRemote(m BusMessage) {
	switch m.Event {
	case EvtCodeUpdate:
		var p CodePayload
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		h.store.SetCode(m.RoomID, p.Code)
	case EvtLanguageUpdate:
		var p LanguagePayload
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		h.store.SetLanguage(m.RoomID, p.Language)
	case EvtCursorUpdate, EvtReceiveMessage:
		// relay only
	default:
		return
	}
	h.groups.EmitToRoom(m.RoomID, m.Event, json.RawMessage(m.Data))
}
